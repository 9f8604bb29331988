package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/pkg/engine"
)

// SimilarGroup is a k-trait combination shared by more than one item.
type SimilarGroup struct {
	Traits []engine.Trait
	Images []string
}

// Similar finds every k-combination of attributes ("None" values included)
// that appears in more than one item. Groups are ordered by their traits and
// each group's images are sorted.
func Similar(records []metadata.Record, k int) []SimilarGroup {
	images := make(map[engine.Pattern][]string)
	for _, r := range records {
		traits := make([]engine.Trait, len(r.Attributes))
		for i, a := range r.Attributes {
			traits[i] = engine.Trait{Category: a.TraitType, Value: a.Value}
		}
		for _, combo := range engine.Combinations(traits, k) {
			p := engine.PatternOf(combo)
			images[p] = append(images[p], r.ImageName())
		}
	}

	var groups []SimilarGroup
	for p, imgs := range images {
		if len(imgs) < 2 {
			continue
		}
		sorted := append([]string(nil), imgs...)
		sort.Strings(sorted)
		groups = append(groups, SimilarGroup{Traits: p.Traits(), Images: sorted})
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessTraits(groups[i].Traits, groups[j].Traits)
	})
	return groups
}

func lessTraits(a, b []engine.Trait) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Category != b[i].Category {
			return a[i].Category < b[i].Category
		}
		if a[i].Value != b[i].Value {
			return a[i].Value < b[i].Value
		}
	}
	return len(a) < len(b)
}

// WriteSimilarCSV writes similar_traits.csv.
func WriteSimilarCSV(w io.Writer, groups []SimilarGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Common Traits", "Image Names", "Count"}); err != nil {
		return err
	}
	for _, g := range groups {
		lines := make([]string, len(g.Traits))
		for i, t := range g.Traits {
			lines[i] = t.Category + ": " + t.Value
		}
		row := []string{strings.Join(lines, "\n"), strings.Join(g.Images, "\n"), fmt.Sprintf("%d", len(g.Images))}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
