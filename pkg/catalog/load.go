package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalog reads and validates a catalog file (JSON or YAML).
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Msg: "failed to read catalog", Err: err}
	}
	return ParseCatalog(data, path)
}

// ParseCatalog decodes and validates catalog bytes. source names the input in errors.
func ParseCatalog(data []byte, source string) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &ConfigError{Source: source, Msg: "failed to parse catalog", Err: err}
	}
	if err := c.Validate(); err != nil {
		err.Source = source
		return nil, err
	}
	return &c, nil
}

// LoadRules reads a rule file (JSON or YAML) and validates it against c.
func LoadRules(path string, c *Catalog) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Msg: "failed to read rules", Err: err}
	}
	return ParseRules(data, path, c)
}

// ParseRules decodes rule bytes and validates them against c.
func ParseRules(data []byte, source string, c *Catalog) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, &ConfigError{Source: source, Msg: "failed to parse rules", Err: err}
	}
	if err := rs.Validate(c); err != nil {
		err.Source = source
		return nil, err
	}
	return &rs, nil
}

// Validate checks the catalog for structural problems. A category whose options
// sum to zero weight can never be sampled and is rejected here.
func (c *Catalog) Validate() *ConfigError {
	if len(c.Traits) == 0 {
		return configErrorf("", "no traits defined")
	}
	if len(c.TraitOrder) == 0 {
		return configErrorf("", "trait_order is empty")
	}

	seen := make(map[string]bool, len(c.TraitOrder))
	for _, name := range c.TraitOrder {
		if seen[name] {
			return configErrorf("", "duplicate category '%s' in trait_order", name)
		}
		seen[name] = true
		if _, ok := c.Traits[name]; !ok {
			return configErrorf("", "trait_order lists '%s' but traits has no such category", name)
		}
	}

	for name, cat := range c.Traits {
		if !seen[name] {
			return configErrorf("", "category '%s' is missing from trait_order", name)
		}
		if err := cat.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (cat Category) validate(name string) *ConfigError {
	if cat.Rarity < 0 || cat.Rarity > 100 {
		return configErrorf("", "category '%s': rarity must be within 0-100, got %g", name, cat.Rarity)
	}
	if len(cat.Options) == 0 {
		return configErrorf("", "category '%s': no options defined", name)
	}

	names := make(map[string]bool, len(cat.Options))
	for i, o := range cat.Options {
		if o.Name == "" {
			return configErrorf("", "category '%s': option %d has no name", name, i)
		}
		if names[o.Name] {
			return configErrorf("", "category '%s': duplicate option '%s'", name, o.Name)
		}
		names[o.Name] = true
		if o.Rarity < 0 {
			return configErrorf("", "category '%s': option '%s' has negative rarity %g", name, o.Name, o.Rarity)
		}
	}

	if cat.TotalWeight() == 0 {
		return configErrorf("", "category '%s': total option rarity is zero", name)
	}
	return nil
}

// Validate checks every rule references known categories and values.
func (rs *RuleSet) Validate(c *Catalog) *ConfigError {
	for i, r := range rs.Rules {
		where := fmt.Sprintf("rule %d", i)

		ifCat, ok := c.Category(r.If.TraitType)
		if !ok {
			return configErrorf("", "%s: unknown if.trait_type '%s'", where, r.If.TraitType)
		}
		if len(r.If.Value) == 0 {
			return configErrorf("", "%s: if.value is empty", where)
		}
		for _, v := range r.If.Value {
			if !ifCat.HasOption(v) {
				return configErrorf("", "%s: '%s' is not an option of '%s'", where, v, r.If.TraitType)
			}
		}

		thenCat, ok := c.Category(r.Then.TraitType)
		if !ok {
			return configErrorf("", "%s: unknown then.trait_type '%s'", where, r.Then.TraitType)
		}
		if len(r.Then.ExcludedValues) == 0 {
			return configErrorf("", "%s: then.excluded_values is empty", where)
		}
		for _, v := range r.Then.ExcludedValues {
			if v != Wildcard && !thenCat.HasOption(v) {
				return configErrorf("", "%s: '%s' is not an option of '%s'", where, v, r.Then.TraitType)
			}
		}
	}
	return nil
}
