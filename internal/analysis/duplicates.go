// Package analysis inspects a generated collection after the fact: duplicate
// detection, rarity scoring and shared-trait scans.
package analysis

import (
	"sort"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
)

// DuplicateStats summarises a duplicate check.
type DuplicateStats struct {
	TotalItems              int `json:"total_nfts"`
	UniqueHashes            int `json:"unique_hashes"`
	UniqueTraitCombinations int `json:"unique_trait_combinations"`
	UniqueBackgrounds       int `json:"unique_backgrounds"`
}

// DuplicateReport is written to duplicate_check_report.json. Duplicate maps are
// keyed by hash or by the combination's text and list item ids.
type DuplicateReport struct {
	Statistics             DuplicateStats      `json:"statistics"`
	DuplicateHashes        map[string][]string `json:"duplicate_hashes"`
	DuplicateTraits        map[string][]string `json:"duplicate_traits"`
	BackgroundDistribution map[string]int      `json:"background_distribution"`
}

// HasDuplicates reports whether any hash or full trait combination repeats.
func (r *DuplicateReport) HasDuplicates() bool {
	return len(r.DuplicateHashes) > 0 || len(r.DuplicateTraits) > 0
}

// CheckDuplicates groups records by content hash (when present) and by full
// attribute set, "None" values included.
func CheckDuplicates(records []metadata.Record) *DuplicateReport {
	byHash := make(map[string][]string)
	byTraits := make(map[string][]string)
	backgrounds := make(map[string]int)

	for _, r := range records {
		if r.Hash != "" {
			byHash[r.Hash] = append(byHash[r.Hash], r.ID)
		}
		key := CombinationKey(r.Attributes)
		byTraits[key] = append(byTraits[key], r.ID)
		if r.BackgroundColor != "" {
			backgrounds[r.BackgroundColor]++
		}
	}

	return &DuplicateReport{
		Statistics: DuplicateStats{
			TotalItems:              len(records),
			UniqueHashes:            len(byHash),
			UniqueTraitCombinations: len(byTraits),
			UniqueBackgrounds:       len(backgrounds),
		},
		DuplicateHashes:        repeated(byHash),
		DuplicateTraits:        repeated(byTraits),
		BackgroundDistribution: backgrounds,
	}
}

// CombinationKey renders attributes order-independently as "Type: Value, ...".
func CombinationKey(attrs []metadata.Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.TraitType + ": " + a.Value
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func repeated(groups map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for k, ids := range groups {
		if len(ids) > 1 {
			out[k] = ids
		}
	}
	return out
}
