package filter

import (
	"testing"

	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record() metadata.Record {
	return metadata.Record{
		ID:              "7",
		BackgroundColor: "2eebb1",
		Attributes: []metadata.Attribute{
			{TraitType: "Base", Value: "Blue"},
			{TraitType: "Head", Value: "DB Saiyan"},
			{TraitType: "Eyes", Value: "None"},
		},
	}
}

func TestCriteria_Matches(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{"no filters", Criteria{}, true},
		{"exact trait", Criteria{Traits: map[string]string{"Base": "Blue"}}, true},
		{"glob trait", Criteria{Traits: map[string]string{"Head": "DB*"}}, true},
		{"none value", Criteria{Traits: map[string]string{"Eyes": "None"}}, true},
		{"wrong value", Criteria{Traits: map[string]string{"Base": "Gold"}}, false},
		{"unknown category", Criteria{Traits: map[string]string{"Wings": "*"}}, false},
		{"all traits must match", Criteria{Traits: map[string]string{"Base": "Blue", "Head": "Cap"}}, false},
		{"background glob", Criteria{Background: "2e*"}, true},
		{"background with hash", Criteria{Background: "2eebb1"}, true},
		{"background mismatch", Criteria{Background: "fff6d7"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(record()))
		})
	}
}

func TestParseTraits(t *testing.T) {
	traits, err := ParseTraits([]string{"Head=DB*", " Base =Blue"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Head": "DB*", "Base": "Blue"}, traits)

	for _, bad := range []string{"Head", "=Cap", "Head=", "Head=[abc"} {
		_, err := ParseTraits([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestCriteria_Describe(t *testing.T) {
	c := Criteria{Traits: map[string]string{"Head": "Cap", "Base": "*"}, Background: "2e*"}
	assert.True(t, c.HasFilters())
	assert.Equal(t, "Base=*, Head=Cap, background=2e*", c.Describe())
	assert.False(t, (&Criteria{}).HasFilters())
}
