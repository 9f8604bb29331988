package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Wildcard in an exclusion's value set excludes every value of the target category.
const Wildcard = "all"

// Option is one concrete value a category can take.
type Option struct {
	Name   string  `yaml:"name" json:"name"`
	Rarity float64 `yaml:"rarity" json:"rarity"`
}

// Category is the definition of a single trait category.
type Category struct {
	Rarity  float64  `yaml:"rarity" json:"rarity"` // inclusion probability, 0-100
	Options []Option `yaml:"options" json:"options"`
}

// TotalWeight returns the sum of all option weights.
func (c Category) TotalWeight() float64 {
	var total float64
	for _, o := range c.Options {
		total += o.Rarity
	}
	return total
}

// HasOption reports whether name is one of the category's options.
func (c Category) HasOption(name string) bool {
	for _, o := range c.Options {
		if o.Name == name {
			return true
		}
	}
	return false
}

// Catalog maps category names to their definitions. TraitOrder is the default
// processing and layering order.
type Catalog struct {
	TraitOrder []string            `yaml:"trait_order" json:"trait_order"`
	Traits     map[string]Category `yaml:"traits" json:"traits"`
}

// Category returns the named category definition.
func (c *Catalog) Category(name string) (Category, bool) {
	cat, ok := c.Traits[name]
	return cat, ok
}

// StringSet is a set of strings that accepts either a single scalar or a sequence
// when decoded, so rule files can write `"value": "Gold"` or `"value": ["Gold"]`.
type StringSet []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = StringSet{node.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*s = values
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// Contains reports whether v is a member of the set.
func (s StringSet) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Excludes reports whether v is excluded, honouring the wildcard.
func (s StringSet) Excludes(v string) bool {
	return s.Contains(Wildcard) || s.Contains(v)
}

// Condition is the "if" side of a rule.
type Condition struct {
	TraitType string    `yaml:"trait_type" json:"trait_type"`
	Value     StringSet `yaml:"value" json:"value"`
}

// Matches reports whether (category, value) triggers the condition.
func (c Condition) Matches(category, value string) bool {
	return c.TraitType == category && c.Value.Contains(value)
}

// Exclusion is the "then" side of a rule.
type Exclusion struct {
	TraitType      string    `yaml:"trait_type" json:"trait_type"`
	ExcludedValues StringSet `yaml:"excluded_values" json:"excluded_values"`
}

// Excludes reports whether (category, value) is forbidden by the exclusion.
func (e Exclusion) Excludes(category, value string) bool {
	return e.TraitType == category && e.ExcludedValues.Excludes(value)
}

// Rule is a conditional exclusion: if If matches, Then's values are forbidden.
type Rule struct {
	If   Condition `yaml:"if" json:"if"`
	Then Exclusion `yaml:"then" json:"then"`
}

// RuleSet is the full list of exclusion rules for a run.
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}
