package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalogJSON = `{
  "trait_order": ["Base", "Suit", "Head", "Eyes"],
  "traits": {
    "Base": {"rarity": 100, "options": [{"name": "Blue", "rarity": 60}, {"name": "Gold", "rarity": 5}]},
    "Suit": {"rarity": 100, "options": [{"name": "Tux", "rarity": 10}]},
    "Head": {"rarity": 80, "options": [{"name": "Helmet", "rarity": 10}, {"name": "Cap", "rarity": 20}]},
    "Eyes": {"rarity": 50, "options": [{"name": "Laser", "rarity": 1}, {"name": "Shades", "rarity": 3}]}
  }
}`

func TestLoadCatalog_ValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(validCatalogJSON), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Suit", "Head", "Eyes"}, c.TraitOrder)
	assert.Len(t, c.Traits, 4)

	head, ok := c.Category("Head")
	require.True(t, ok)
	assert.Equal(t, 80.0, head.Rarity)
	assert.Equal(t, "Helmet", head.Options[0].Name)
	assert.Equal(t, 30.0, head.TotalWeight())
}

func TestLoadCatalog_YAML(t *testing.T) {
	doc := `trait_order: [Base]
traits:
  Base:
    rarity: 100
    options:
      - name: Blue
        rarity: 1
`
	c, err := ParseCatalog([]byte(doc), "inline")
	require.NoError(t, err)
	assert.True(t, c.Traits["Base"].HasOption("Blue"))
}

func TestLoadCatalog_FileNotFound(t *testing.T) {
	c, err := LoadCatalog("/nonexistent/config.json")
	assert.Nil(t, c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "failed to read catalog")
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"malformed", `{"trait_order": [`, "failed to parse catalog"},
		{"no traits", `{"trait_order": ["Base"], "traits": {}}`, "no traits defined"},
		{"empty order", `{"trait_order": [], "traits": {"Base": {"rarity": 1, "options": [{"name": "a", "rarity": 1}]}}}`, "trait_order is empty"},
		{"unknown in order", `{"trait_order": ["Base", "Hat"], "traits": {"Base": {"rarity": 1, "options": [{"name": "a", "rarity": 1}]}}}`, "no such category"},
		{"missing from order", `{"trait_order": ["Base"], "traits": {"Base": {"rarity": 1, "options": [{"name": "a", "rarity": 1}]}, "Hat": {"rarity": 1, "options": [{"name": "b", "rarity": 1}]}}}`, "missing from trait_order"},
		{"zero weight", `{"trait_order": ["Base"], "traits": {"Base": {"rarity": 100, "options": [{"name": "a", "rarity": 0}]}}}`, "total option rarity is zero"},
		{"negative weight", `{"trait_order": ["Base"], "traits": {"Base": {"rarity": 100, "options": [{"name": "a", "rarity": -1}]}}}`, "negative rarity"},
		{"rarity out of range", `{"trait_order": ["Base"], "traits": {"Base": {"rarity": 101, "options": [{"name": "a", "rarity": 1}]}}}`, "within 0-100"},
		{"duplicate option", `{"trait_order": ["Base"], "traits": {"Base": {"rarity": 1, "options": [{"name": "a", "rarity": 1}, {"name": "a", "rarity": 2}]}}}`, "duplicate option"},
		{"no options", `{"trait_order": ["Base"], "traits": {"Base": {"rarity": 1, "options": []}}}`, "no options defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCatalog([]byte(tt.doc), "test.json")
			assert.Nil(t, c)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "test.json")
		})
	}
}

func TestParseRules(t *testing.T) {
	c, err := ParseCatalog([]byte(validCatalogJSON), "catalog")
	require.NoError(t, err)

	t.Run("accepts scalar and list values", func(t *testing.T) {
		doc := `{"rules": [
		  {"if": {"trait_type": "Head", "value": "Helmet"}, "then": {"trait_type": "Eyes", "excluded_values": ["all"]}},
		  {"if": {"trait_type": "Base", "value": ["Gold", "Blue"]}, "then": {"trait_type": "Head", "excluded_values": ["Cap"]}}
		]}`
		rs, err := ParseRules([]byte(doc), "ruler.json", c)
		require.NoError(t, err)
		require.Len(t, rs.Rules, 2)
		assert.Equal(t, StringSet{"Helmet"}, rs.Rules[0].If.Value)
		assert.True(t, rs.Rules[0].Then.Excludes("Eyes", "Laser"))
		assert.True(t, rs.Rules[1].If.Matches("Base", "Blue"))
		assert.False(t, rs.Rules[1].Then.Excludes("Head", "Helmet"))
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		doc := `{"rules": [{"if": {"trait_type": "Hat", "value": ["x"]}, "then": {"trait_type": "Eyes", "excluded_values": ["all"]}}]}`
		_, err := ParseRules([]byte(doc), "ruler.json", c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown if.trait_type 'Hat'")
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		doc := `{"rules": [{"if": {"trait_type": "Head", "value": ["Helmet"]}, "then": {"trait_type": "Eyes", "excluded_values": ["Monocle"]}}]}`
		_, err := ParseRules([]byte(doc), "ruler.json", c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'Monocle' is not an option of 'Eyes'")
	})

	t.Run("rejects empty excluded set", func(t *testing.T) {
		doc := `{"rules": [{"if": {"trait_type": "Head", "value": ["Helmet"]}, "then": {"trait_type": "Eyes", "excluded_values": []}}]}`
		_, err := ParseRules([]byte(doc), "ruler.json", c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "excluded_values is empty")
	})
}

func TestStringSet_Excludes(t *testing.T) {
	assert.True(t, StringSet{Wildcard}.Excludes("anything"))
	assert.True(t, StringSet{"a", "b"}.Excludes("b"))
	assert.False(t, StringSet{"a"}.Excludes("b"))
	assert.False(t, StringSet{}.Excludes("a"))
}
