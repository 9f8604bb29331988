package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
)

// TraitRarity is the frequency of one (trait type, value) across the collection.
// Score is total/count, so rarer values score higher.
type TraitRarity struct {
	TraitType  string  `json:"trait_type"`
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Score      float64 `json:"rarity_score"`
}

// ItemRarity is an item's summed trait score.
type ItemRarity struct {
	Rank       int           `json:"rank"`
	ID         string        `json:"id"`
	Traits     []TraitRarity `json:"traits"`
	TotalScore float64       `json:"total_score"`
}

// RarityReport holds per-trait rarity and the item ranking.
type RarityReport struct {
	Total int
	// TraitTypes in first-seen order.
	TraitTypes []string
	// Values per trait type, highest score first.
	Values  map[string][]TraitRarity
	Ranking []ItemRarity
}

// Rarity scores every trait value and ranks items by total score, highest first.
// Ties keep collection order.
func Rarity(records []metadata.Record) *RarityReport {
	report := &RarityReport{Total: len(records), Values: make(map[string][]TraitRarity)}
	if len(records) == 0 {
		return report
	}

	counts := make(map[string]map[string]int)
	for _, r := range records {
		for _, a := range r.Attributes {
			if counts[a.TraitType] == nil {
				counts[a.TraitType] = make(map[string]int)
				report.TraitTypes = append(report.TraitTypes, a.TraitType)
			}
			counts[a.TraitType][a.Value]++
		}
	}

	total := float64(len(records))
	lookup := make(map[string]map[string]TraitRarity)
	for traitType, values := range counts {
		lookup[traitType] = make(map[string]TraitRarity)
		for value, n := range values {
			tr := TraitRarity{
				TraitType:  traitType,
				Value:      value,
				Count:      n,
				Percentage: float64(n) / total * 100,
				Score:      total / float64(n),
			}
			lookup[traitType][value] = tr
			report.Values[traitType] = append(report.Values[traitType], tr)
		}
		sort.Slice(report.Values[traitType], func(i, j int) bool {
			a, b := report.Values[traitType][i], report.Values[traitType][j]
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.Value < b.Value
		})
	}

	for _, r := range records {
		item := ItemRarity{ID: r.ID}
		for _, a := range r.Attributes {
			tr := lookup[a.TraitType][a.Value]
			item.Traits = append(item.Traits, tr)
			item.TotalScore += tr.Score
		}
		report.Ranking = append(report.Ranking, item)
	}
	sort.SliceStable(report.Ranking, func(i, j int) bool {
		return report.Ranking[i].TotalScore > report.Ranking[j].TotalScore
	})
	for i := range report.Ranking {
		report.Ranking[i].Rank = i + 1
	}
	return report
}

// Rarest returns the highest-scoring value of a trait type.
func (r *RarityReport) Rarest(traitType string) (TraitRarity, bool) {
	values := r.Values[traitType]
	if len(values) == 0 {
		return TraitRarity{}, false
	}
	return values[0], true
}

// WriteTraitCSV writes trait_rarity.csv.
func (r *RarityReport) WriteTraitCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Trait Type", "Value", "Count", "Percentage", "Rarity Score"}); err != nil {
		return err
	}
	for _, traitType := range r.TraitTypes {
		for _, tr := range r.Values[traitType] {
			row := []string{
				tr.TraitType,
				tr.Value,
				fmt.Sprintf("%d", tr.Count),
				fmt.Sprintf("%.2f%%", tr.Percentage),
				fmt.Sprintf("%.2f", tr.Score),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRankingCSV writes nft_rarity_ranking.csv.
func (r *RarityReport) WriteRankingCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Rank", "NFT ID", "Total Rarity Score", "Trait Breakdown"}); err != nil {
		return err
	}
	for _, item := range r.Ranking {
		lines := make([]string, len(item.Traits))
		for i, t := range item.Traits {
			lines[i] = fmt.Sprintf("%s: %s (%.2f%%)", t.TraitType, t.Value, t.Percentage)
		}
		row := []string{
			fmt.Sprintf("%d", item.Rank),
			item.ID + ".png",
			fmt.Sprintf("%.2f", item.TotalScore),
			strings.Join(lines, "\n"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
