package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dyluth/traitforge/internal/analysis"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/spf13/cobra"
)

const (
	TraitRarityFileName = "trait_rarity.csv"
	RankingFileName     = "nft_rarity_ranking.csv"
)

var (
	rarityInput string
	rarityTop   int
)

var rarityCmd = &cobra.Command{
	Use:   "rarity",
	Short: "Score trait rarity and rank items",
	Long: `Compute how often each trait value occurs and rank items by the sum of
their trait rarity scores (total items / occurrences). Writes
<output>/` + TraitRarityFileName + ` and <output>/` + RankingFileName + `.`,
	Args: cobra.NoArgs,
	RunE: runRarity,
}

func init() {
	rarityCmd.Flags().StringVar(&rarityInput, "input", "", "Metadata file or directory (defaults to the project output)")
	rarityCmd.Flags().IntVar(&rarityTop, "top", 10, "Number of top-ranked items to print")
	rootCmd.AddCommand(rarityCmd)
}

func runRarity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := loadRecords(cfg, rarityInput)
	if err != nil {
		return err
	}

	report := analysis.Rarity(records)
	if report.Total == 0 {
		return printer.Error("empty collection", "No items to score.", nil)
	}

	traitPath := filepath.Join(cfg.OutputDir(), TraitRarityFileName)
	rankPath := filepath.Join(cfg.OutputDir(), RankingFileName)
	if err := writeFile(traitPath, report.WriteTraitCSV); err != nil {
		return printer.Error("failed to write trait rarity", err.Error(), nil)
	}
	if err := writeFile(rankPath, report.WriteRankingCSV); err != nil {
		return printer.Error("failed to write ranking", err.Error(), nil)
	}

	out := cmd.OutOrStdout()
	rarest := make([][]string, 0, len(report.TraitTypes))
	for _, t := range report.TraitTypes {
		if tr, ok := report.Rarest(t); ok {
			rarest = append(rarest, []string{t, tr.Value, strconv.Itoa(tr.Count), fmt.Sprintf("%.2f", tr.Score)})
		}
	}
	fmt.Fprintln(out, "Rarest value per trait:")
	_ = printer.Table(out, []string{"TRAIT", "VALUE", "COUNT", "SCORE"}, rarest)

	top := report.Ranking
	if rarityTop > 0 && len(top) > rarityTop {
		top = top[:rarityTop]
	}
	ranked := make([][]string, 0, len(top))
	for _, item := range top {
		ranked = append(ranked, []string{strconv.Itoa(item.Rank), item.ID, fmt.Sprintf("%.2f", item.TotalScore)})
	}
	fmt.Fprintf(out, "\nTop %d items:\n", len(top))
	_ = printer.Table(out, []string{"RANK", "ID", "SCORE"}, ranked)

	printer.Success("Wrote %s and %s\n", traitPath, rankPath)
	return nil
}

// writeFile creates path and streams content into it.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
