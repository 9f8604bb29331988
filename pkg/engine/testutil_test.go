package engine

import (
	"testing"

	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed list of Float64 values (cycling) and counts calls.
type scriptedSource struct {
	floats []float64
	pos    int
	calls  int
}

func (s *scriptedSource) Float64() float64 {
	s.calls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.pos%len(s.floats)]
	s.pos++
	return v
}

func (s *scriptedSource) Intn(n int) int { return 0 }

func opts(values ...string) []catalog.Option {
	out := make([]catalog.Option, len(values))
	for i, v := range values {
		out[i] = catalog.Option{Name: v, Rarity: 1}
	}
	return out
}

func mustCatalog(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.ParseCatalog([]byte(doc), "test")
	require.NoError(t, err)
	return c
}

func mustRules(t *testing.T, doc string, c *catalog.Catalog) *catalog.RuleSet {
	t.Helper()
	rs, err := catalog.ParseRules([]byte(doc), "test", c)
	require.NoError(t, err)
	return rs
}

// richCatalog has enough variety to fill a few hundred unique items.
const richCatalog = `{
  "trait_order": ["Background", "Base", "Suit", "Mouth", "Head", "Eyes", "Accessory"],
  "traits": {
    "Background": {"rarity": 100, "options": [{"name": "Plain", "rarity": 50}, {"name": "Stars", "rarity": 20}, {"name": "Grid", "rarity": 30}]},
    "Base": {"rarity": 100, "options": [{"name": "Blue", "rarity": 40}, {"name": "Green", "rarity": 30}, {"name": "Red", "rarity": 20}, {"name": "Gold", "rarity": 10}]},
    "Suit": {"rarity": 100, "options": [{"name": "Tux", "rarity": 25}, {"name": "Hoodie", "rarity": 25}, {"name": "Armor", "rarity": 25}, {"name": "Robe", "rarity": 25}]},
    "Mouth": {"rarity": 90, "options": [{"name": "Smile", "rarity": 50}, {"name": "Frown", "rarity": 30}, {"name": "Pipe", "rarity": 20}]},
    "Head": {"rarity": 100, "options": [{"name": "Cap", "rarity": 30}, {"name": "Helmet", "rarity": 20}, {"name": "Crown", "rarity": 10}, {"name": "Bandana", "rarity": 30}, {"name": "DB Saiyan", "rarity": 10}]},
    "Eyes": {"rarity": 80, "options": [{"name": "Laser", "rarity": 10}, {"name": "Shades", "rarity": 40}, {"name": "Wink", "rarity": 50}]},
    "Accessory": {"rarity": 40, "options": [{"name": "Chain", "rarity": 50}, {"name": "Badge", "rarity": 50}]}
  }
}`

const richRules = `{"rules": [
  {"if": {"trait_type": "Head", "value": ["Helmet"]}, "then": {"trait_type": "Eyes", "excluded_values": ["all"]}},
  {"if": {"trait_type": "Suit", "value": ["Armor"]}, "then": {"trait_type": "Mouth", "excluded_values": ["Pipe"]}}
]}`
