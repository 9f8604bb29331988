package filter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
)

// Criteria defines filtering criteria for items.
// All filters are ANDed together - an item must match ALL criteria to pass.
type Criteria struct {
	Traits     map[string]string // Category → glob on the value ("None" for absent), empty = no filter
	Background string            // Glob on the background colour, empty = no filter
}

// Matches returns true if the record matches all filter criteria.
// A trait filter on a category the record does not list never matches.
func (c *Criteria) Matches(r metadata.Record) bool {
	if c.Background != "" && !globMatch(c.Background, strings.TrimPrefix(r.BackgroundColor, "#")) {
		return false
	}

	for category, pattern := range c.Traits {
		value, ok := valueOf(r, category)
		if !ok || !globMatch(pattern, value) {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.Background != "" || len(c.Traits) > 0
}

// ParseTraits parses "Category=glob" flags into a trait filter map.
func ParseTraits(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, raw := range flags {
		category, pattern, ok := strings.Cut(raw, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" || pattern == "" {
			return nil, fmt.Errorf("invalid trait filter %q (expected Category=pattern)", raw)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern in trait filter %q: %w", raw, err)
		}
		out[category] = pattern
	}
	return out, nil
}

// Describe renders the active filters for display, in category order.
func (c *Criteria) Describe() string {
	var parts []string
	categories := make([]string, 0, len(c.Traits))
	for k := range c.Traits {
		categories = append(categories, k)
	}
	sort.Strings(categories)
	for _, k := range categories {
		parts = append(parts, k+"="+c.Traits[k])
	}
	if c.Background != "" {
		parts = append(parts, "background="+c.Background)
	}
	return strings.Join(parts, ", ")
}

func valueOf(r metadata.Record, category string) (string, bool) {
	for _, a := range r.Attributes {
		if a.TraitType == category {
			return a.Value, true
		}
	}
	return "", false
}

func globMatch(pattern, value string) bool {
	matched, err := filepath.Match(pattern, value)
	return err == nil && matched
}
