package commands

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dyluth/traitforge/internal/analysis"
	"github.com/dyluth/traitforge/internal/generator"
	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/spf13/cobra"
)

// DuplicateReportFileName is the report written by 'traitforge check'.
const DuplicateReportFileName = "duplicate_check_report.json"

var checkInput string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a collection for duplicate items",
	Long: `Check a generated collection for repeated content hashes and repeated full
trait combinations, and report the background distribution. The report is
written to <output>/` + DuplicateReportFileName + `.

Exits non-zero when duplicates are found.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkInput, "input", "", "Metadata file or directory (defaults to the project output)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := loadRecords(cfg, checkInput)
	if err != nil {
		return err
	}

	report := analysis.CheckDuplicates(records)
	path := filepath.Join(cfg.OutputDir(), DuplicateReportFileName)
	if err := metadata.WriteJSON(path, report); err != nil {
		return printer.Error("failed to write duplicate report", err.Error(), nil)
	}

	s := report.Statistics
	out := cmd.OutOrStdout()
	_ = printer.Table(out, []string{"CHECK", "VALUE"}, [][]string{
		{"Total items", strconv.Itoa(s.TotalItems)},
		{"Unique hashes", strconv.Itoa(s.UniqueHashes)},
		{"Unique trait combinations", strconv.Itoa(s.UniqueTraitCombinations)},
		{"Unique backgrounds", strconv.Itoa(s.UniqueBackgrounds)},
	})

	printer.Println("\nBackgrounds:")
	for _, colour := range generator.BackgroundShares(report.BackgroundDistribution) {
		printer.Printf("  %s  %d\n", printer.Swatch(colour), report.BackgroundDistribution[colour])
	}
	printer.Info("Report: %s\n", path)

	if !report.HasDuplicates() {
		printer.Success("No duplicates found\n")
		return nil
	}

	for _, group := range sortedGroups(report.DuplicateHashes) {
		printer.Warning("Duplicate hash %s: items %s\n", group.key, strings.Join(group.ids, ", "))
	}
	for _, group := range sortedGroups(report.DuplicateTraits) {
		printer.Warning("Duplicate traits [%s]: items %s\n", group.key, strings.Join(group.ids, ", "))
	}
	return printer.Error(
		"duplicates found",
		"The collection contains repeated items.",
		[]string{"Regenerate with a larger attempt budget or a richer catalog"},
	)
}

type duplicateGroup struct {
	key string
	ids []string
}

func sortedGroups(groups map[string][]string) []duplicateGroup {
	out := make([]duplicateGroup, 0, len(groups))
	for k, ids := range groups {
		out = append(out, duplicateGroup{key: k, ids: ids})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
