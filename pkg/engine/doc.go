// Package engine implements constrained trait composition: it samples a trait
// assignment for each item, validates it against exclusion rules, and accepts it
// only when it keeps the collection unique.
//
// # Components
//
//   - SelectWeighted draws one option with probability weight/totalWeight.
//   - Include decides per category, per item, whether the category is present.
//   - RuleEngine evaluates conditional exclusions in both directions.
//   - Tracker holds the collection-wide uniqueness state: 4-pattern counts,
//     anchor signatures and accepted content hashes.
//   - Orchestrator drives the per-item loop with two independent retry budgets.
//
// # Control flow
//
// For each category, in priority order (anchors first, then catalog order), the
// orchestrator consults Include, then SelectWeighted, then RuleEngine, retrying the
// selection up to the per-trait budget. A complete assignment is hashed and checked
// against the Tracker; only an accepted item mutates tracker state. The whole
// attempt is retried up to the per-item budget before the item is declared failed.
//
// # Determinism
//
// All randomness comes from a single Source. Given the same seed, catalog, rules
// and budgets, the sequence of accepted items is identical across runs.
//
// The engine is single-threaded by contract. Tracker methods take an internal lock
// and TryCommit performs check-then-set atomically, so a tracker can be shared if
// generation is ever parallelised.
package engine
