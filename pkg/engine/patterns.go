package engine

import (
	"strings"

	"gonum.org/v1/gonum/stat/combin"
)

// Pattern identifies an unordered set of traits. Two assignments share a pattern
// when they share all of its (category, value) pairs.
type Pattern string

const (
	pairSep  = "\x1f"
	traitSep = "\x1e"
)

// Combinations returns every k-element subset of traits. Each subset is sorted by
// category then value, and subsets are emitted in lexicographic index order.
// It returns nil when there are fewer than k traits.
func Combinations(traits []Trait, k int) [][]Trait {
	if k <= 0 || len(traits) < k {
		return nil
	}

	sorted := make([]Trait, len(traits))
	copy(sorted, traits)
	sortTraits(sorted)

	out := make([][]Trait, 0, combin.Binomial(len(sorted), k))
	gen := combin.NewCombinationGenerator(len(sorted), k)
	idx := make([]int, k)
	for gen.Next() {
		gen.Combination(idx)
		subset := make([]Trait, k)
		for i, j := range idx {
			subset[i] = sorted[j]
		}
		out = append(out, subset)
	}
	return out
}

// Patterns returns the keys of every k-combination of a's traits.
func Patterns(a *Assignment, k int) []Pattern {
	combos := Combinations(a.Traits(), k)
	out := make([]Pattern, len(combos))
	for i, c := range combos {
		out[i] = PatternOf(c)
	}
	return out
}

// PatternOf builds the key for a set of traits, independent of their order.
func PatternOf(traits []Trait) Pattern {
	sorted := make([]Trait, len(traits))
	copy(sorted, traits)
	sortTraits(sorted)

	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = t.Category + pairSep + t.Value
	}
	return Pattern(strings.Join(parts, traitSep))
}

// Traits decodes the pattern back into its pairs.
func (p Pattern) Traits() []Trait {
	if p == "" {
		return nil
	}
	parts := strings.Split(string(p), traitSep)
	out := make([]Trait, 0, len(parts))
	for _, part := range parts {
		cat, val, _ := strings.Cut(part, pairSep)
		out = append(out, Trait{Category: cat, Value: val})
	}
	return out
}
