package engine

import (
	"testing"

	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/stretchr/testify/assert"
)

func ruleCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		TraitOrder: []string{"Base", "Head", "Eyes"},
		Traits: map[string]catalog.Category{
			"Base": {Rarity: 100, Options: opts("Blue", "Gold")},
			"Head": {Rarity: 100, Options: opts("Helmet", "Cap", "Crown")},
			"Eyes": {Rarity: 100, Options: opts("Laser", "Shades", "Wink")},
		},
	}
}

func ruleSet() *catalog.RuleSet {
	return &catalog.RuleSet{Rules: []catalog.Rule{
		{
			If:   catalog.Condition{TraitType: "Head", Value: catalog.StringSet{"Helmet"}},
			Then: catalog.Exclusion{TraitType: "Eyes", ExcludedValues: catalog.StringSet{catalog.Wildcard}},
		},
		{
			If:   catalog.Condition{TraitType: "Base", Value: catalog.StringSet{"Gold"}},
			Then: catalog.Exclusion{TraitType: "Head", ExcludedValues: catalog.StringSet{"Crown", "Cap"}},
		},
	}}
}

func TestRuleEngine_BothDirections(t *testing.T) {
	e := NewRuleEngine(ruleSet())

	t.Run("candidate triggers rule against existing target", func(t *testing.T) {
		a := NewAssignment(Trait{"Eyes", "Laser"})
		assert.False(t, e.Allows(a, "Head", "Helmet"))
		assert.True(t, e.Allows(a, "Head", "Cap"))
	})

	t.Run("existing trait triggers rule against candidate", func(t *testing.T) {
		a := NewAssignment(Trait{"Head", "Helmet"})
		assert.False(t, e.Allows(a, "Eyes", "Wink"))
		assert.False(t, e.Allows(a, "Eyes", "Shades"))
	})

	t.Run("explicit excluded set", func(t *testing.T) {
		a := NewAssignment(Trait{"Base", "Gold"})
		assert.False(t, e.Allows(a, "Head", "Crown"))
		assert.False(t, e.Allows(a, "Head", "Cap"))
		assert.True(t, e.Allows(a, "Head", "Helmet"))
	})

	t.Run("unrelated categories pass", func(t *testing.T) {
		a := NewAssignment(Trait{"Base", "Blue"})
		assert.True(t, e.Allows(a, "Head", "Crown"))
		assert.True(t, e.Allows(&Assignment{}, "Eyes", "Laser"))
	})

	t.Run("violation reports the rule", func(t *testing.T) {
		a := NewAssignment(Trait{"Base", "Gold"})
		r, violated := e.Violation(a, "Head", "Cap")
		assert.True(t, violated)
		assert.Equal(t, "Base", r.If.TraitType)
	})

	t.Run("does not mutate the assignment", func(t *testing.T) {
		a := NewAssignment(Trait{"Head", "Helmet"})
		e.Allows(a, "Eyes", "Laser")
		assert.Equal(t, 1, a.Len())
	})
}

func TestRuleEngine_SymmetricAcrossInsertionOrder(t *testing.T) {
	c := ruleCatalog()
	e := NewRuleEngine(ruleSet())

	cats := c.TraitOrder
	for i, catA := range cats {
		for _, catB := range cats[i+1:] {
			for _, optA := range c.Traits[catA].Options {
				for _, optB := range c.Traits[catB].Options {
					aThenB := e.Allows(NewAssignment(Trait{catA, optA.Name}), catB, optB.Name)
					bThenA := e.Allows(NewAssignment(Trait{catB, optB.Name}), catA, optA.Name)
					assert.Equal(t, aThenB, bThenA, "%s=%s / %s=%s", catA, optA.Name, catB, optB.Name)
				}
			}
		}
	}
}

func TestRuleEngine_NilRules(t *testing.T) {
	e := NewRuleEngine(nil)
	assert.True(t, e.Allows(NewAssignment(Trait{"Head", "Helmet"}), "Eyes", "Laser"))
}
