package engine

import "github.com/dyluth/traitforge/pkg/catalog"

// RuleEngine evaluates exclusion rules against a partially built assignment.
// It never mutates the assignment.
type RuleEngine struct {
	rules []catalog.Rule
}

// NewRuleEngine wraps rs. A nil rule set allows everything.
func NewRuleEngine(rs *catalog.RuleSet) *RuleEngine {
	if rs == nil {
		return &RuleEngine{}
	}
	return &RuleEngine{rules: rs.Rules}
}

// Allows reports whether (category, value) may be appended to a.
//
// Every rule is checked in both directions: the candidate may trigger a rule whose
// target is already assigned, or an assigned trait may trigger a rule that targets
// the candidate. Rules authored from either trait's perspective therefore reject
// the same combinations whichever category is assigned first.
func (e *RuleEngine) Allows(a *Assignment, category, value string) bool {
	_, violated := e.Violation(a, category, value)
	return !violated
}

// Violation returns the first rule that rejects the candidate.
func (e *RuleEngine) Violation(a *Assignment, category, value string) (catalog.Rule, bool) {
	for _, r := range e.rules {
		if r.If.Matches(category, value) {
			if existing, ok := a.Get(r.Then.TraitType); ok && r.Then.ExcludedValues.Excludes(existing) {
				return r, true
			}
		}

		if existing, ok := a.Get(r.If.TraitType); ok && r.If.Value.Contains(existing) {
			if r.Then.Excludes(category, value) {
				return r, true
			}
		}
	}
	return catalog.Rule{}, false
}
