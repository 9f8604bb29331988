package commands

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/spf13/cobra"
)

var combineOutput string

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge per-item metadata files into one JSON array",
	Long: `Read every <output>/metadata/<id>.json in numeric order and write them as a
single JSON array. Invalid files and files missing required fields are
reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: runCombine,
}

func init() {
	combineCmd.Flags().StringVarP(&combineOutput, "out", "O", "", "Output file (defaults to <output>/"+metadata.CombinedFileName+")")
	rootCmd.AddCommand(combineCmd)
}

func runCombine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := metadata.Combine(cfg.MetadataDir())
	for _, p := range problemsOf(result) {
		printer.Warning("%s\n", p.String())
	}
	if err != nil {
		return printer.ErrorWithContext("failed to combine metadata", err.Error(), map[string]string{"Directory": cfg.MetadataDir()}, nil)
	}

	out := combineOutput
	if out == "" {
		out = filepath.Join(cfg.OutputDir(), metadata.CombinedFileName)
	}
	if err := metadata.WriteJSON(out, result.Items); err != nil {
		return printer.Error("failed to write combined metadata", err.Error(), nil)
	}

	printer.Success("Combined %d items into %s\n", len(result.Items), out)
	printer.Info("Trait types: %s\n", strings.Join(result.TraitTypes, ", "))
	if len(result.Problems) > 0 {
		printer.Warning("%d files skipped\n", len(result.Problems))
	}
	return nil
}

func problemsOf(r *metadata.CombineResult) []metadata.Problem {
	if r == nil {
		return nil
	}
	return r.Problems
}
