package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dyluth/traitforge/internal/analysis"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/spf13/cobra"
)

// SimilarFileName is the report written by 'traitforge similar'.
const SimilarFileName = "similar_traits.csv"

var (
	similarInput string
	similarK     int
	similarShow  int
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Find trait combinations shared by several items",
	Long: `List every combination of k traits ("None" values included) that appears
in more than one item. Writes <output>/` + SimilarFileName + `.`,
	Args: cobra.NoArgs,
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().StringVar(&similarInput, "input", "", "Metadata file or directory (defaults to the project output)")
	similarCmd.Flags().IntVar(&similarK, "k", 4, "Number of traits per combination")
	similarCmd.Flags().IntVar(&similarShow, "show", 10, "Number of groups to print")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if similarK < 1 {
		return printer.Error("invalid --k", fmt.Sprintf("k must be at least 1 (got %d)", similarK), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := loadRecords(cfg, similarInput)
	if err != nil {
		return err
	}

	groups := analysis.Similar(records, similarK)
	path := filepath.Join(cfg.OutputDir(), SimilarFileName)
	if err := writeFile(path, func(w io.Writer) error { return analysis.WriteSimilarCSV(w, groups) }); err != nil {
		return printer.Error("failed to write similar traits", err.Error(), nil)
	}

	if len(groups) == 0 {
		printer.Success("No %d-trait combination is shared by more than one item\n", similarK)
		return nil
	}

	show := groups
	if similarShow > 0 && len(show) > similarShow {
		show = show[:similarShow]
	}
	rows := make([][]string, 0, len(show))
	for _, g := range show {
		traits := make([]string, len(g.Traits))
		for i, t := range g.Traits {
			traits[i] = t.Category + ": " + t.Value
		}
		rows = append(rows, []string{strings.Join(traits, ", "), fmt.Sprint(len(g.Images))})
	}
	_ = printer.Table(cmd.OutOrStdout(), []string{"COMMON TRAITS", "ITEMS"}, rows)

	printer.Warning("%d shared %d-trait combinations (report: %s)\n", len(groups), similarK, path)
	return nil
}
