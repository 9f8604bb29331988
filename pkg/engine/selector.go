package engine

import (
	"errors"

	"github.com/dyluth/traitforge/pkg/catalog"
)

// ErrZeroWeight is returned when a weighted draw has nothing to choose from.
var ErrZeroWeight = errors.New("options have zero total weight")

// SelectWeighted draws one option with probability Rarity/totalWeight.
//
// A value is drawn uniformly in [0, total) and options are walked in order,
// accumulating weight; the first option whose cumulative weight meets or exceeds
// the draw wins, so ties resolve to the earlier option. Zero-weight options are
// never returned.
func SelectWeighted(rng Source, options []catalog.Option) (catalog.Option, error) {
	var total float64
	for _, o := range options {
		if o.Rarity > 0 {
			total += o.Rarity
		}
	}
	if total <= 0 {
		return catalog.Option{}, ErrZeroWeight
	}

	draw := rng.Float64() * total
	var cumulative float64
	last := -1
	for i, o := range options {
		if o.Rarity <= 0 {
			continue
		}
		last = i
		cumulative += o.Rarity
		if cumulative >= draw {
			return o, nil
		}
	}

	// Rounding can leave the draw a hair above the final cumulative sum.
	return options[last], nil
}

// Include reports whether a category with the given inclusion probability (0-100)
// is present. One value is always drawn so the stream advances identically
// regardless of the probability.
func Include(rng Source, probability float64) bool {
	return rng.Float64()*100 < probability
}
