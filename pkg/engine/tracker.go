package engine

import (
	"strings"
	"sync"
)

// DefaultPatternSize is the number of traits in a uniqueness pattern.
const DefaultPatternSize = 4

// AnchorSignature is the joint value of the anchor categories of one item.
type AnchorSignature string

// TrackerStats is a snapshot of the uniqueness state.
type TrackerStats struct {
	AcceptedItems    int `json:"accepted_items"`
	AnchorSignatures int `json:"anchor_signatures"`
	Patterns         int `json:"patterns"`
}

// Tracker holds the collection-wide uniqueness state for one run. State changes
// only through Commit or TryCommit, after an item is fully accepted.
type Tracker struct {
	mu          sync.Mutex
	anchors     []string
	ceiling     int
	patternSize int

	patternCounts    map[Pattern]int
	anchorSignatures map[AnchorSignature]struct{}
	acceptedHashes   map[string]struct{}
}

// NewTracker creates an empty tracker. No pattern may be committed more than
// ceiling times (minimum 1). patternSize <= 0 selects DefaultPatternSize.
func NewTracker(anchors []string, ceiling, patternSize int) *Tracker {
	if ceiling < 1 {
		ceiling = 1
	}
	if patternSize <= 0 {
		patternSize = DefaultPatternSize
	}
	return &Tracker{
		anchors:          append([]string(nil), anchors...),
		ceiling:          ceiling,
		patternSize:      patternSize,
		patternCounts:    make(map[Pattern]int),
		anchorSignatures: make(map[AnchorSignature]struct{}),
		acceptedHashes:   make(map[string]struct{}),
	}
}

// Signature returns the anchor signature of a, or false unless every anchor
// category is present.
func (t *Tracker) Signature(a *Assignment) (AnchorSignature, bool) {
	if len(t.anchors) == 0 {
		return "", false
	}
	values := make([]string, len(t.anchors))
	for i, cat := range t.anchors {
		v, ok := a.Get(cat)
		if !ok {
			return "", false
		}
		values[i] = v
	}
	return AnchorSignature(strings.Join(values, pairSep)), true
}

// Check returns the reason a would be rejected, or "" if it is acceptable.
// The anchor signature is checked before the patterns. Check does not mutate.
func (t *Tracker) Check(a *Assignment) AttemptFailure {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLocked(a)
}

// IsAcceptable reports whether a passes the anchor and pattern constraints.
func (t *Tracker) IsAcceptable(a *Assignment) bool {
	return t.Check(a) == ""
}

// HasHash reports whether hash belongs to an accepted item.
func (t *Tracker) HasHash(hash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.acceptedHashes[hash]
	return ok
}

// Commit records an accepted item. Callers must commit each accepted item exactly
// once; committing twice double-counts its patterns.
func (t *Tracker) Commit(a *Assignment, hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commitLocked(a, hash)
}

// TryCommit checks and commits a atomically, returning the rejection reason or ""
// on success.
func (t *Tracker) TryCommit(a *Assignment, hash string) AttemptFailure {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.acceptedHashes[hash]; ok {
		return FailDuplicateHash
	}
	if f := t.checkLocked(a); f != "" {
		return f
	}
	t.commitLocked(a, hash)
	return ""
}

// PatternCount returns how many accepted items contain p.
func (t *Tracker) PatternCount(p Pattern) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.patternCounts[p]
}

// MaxPatternCount returns the highest count of any pattern.
func (t *Tracker) MaxPatternCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	highest := 0
	for _, n := range t.patternCounts {
		if n > highest {
			highest = n
		}
	}
	return highest
}

// Ceiling returns the configured pattern ceiling.
func (t *Tracker) Ceiling() int { return t.ceiling }

// PatternSize returns the number of traits per pattern.
func (t *Tracker) PatternSize() int { return t.patternSize }

// Stats returns a snapshot of the state sizes.
func (t *Tracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TrackerStats{
		AcceptedItems:    len(t.acceptedHashes),
		AnchorSignatures: len(t.anchorSignatures),
		Patterns:         len(t.patternCounts),
	}
}

func (t *Tracker) checkLocked(a *Assignment) AttemptFailure {
	if sig, ok := t.Signature(a); ok {
		if _, used := t.anchorSignatures[sig]; used {
			return FailAnchorSignature
		}
	}
	for _, p := range Patterns(a, t.patternSize) {
		if t.patternCounts[p] >= t.ceiling {
			return FailPatternCeiling
		}
	}
	return ""
}

func (t *Tracker) commitLocked(a *Assignment, hash string) {
	for _, p := range Patterns(a, t.patternSize) {
		t.patternCounts[p]++
	}
	if sig, ok := t.Signature(a); ok {
		t.anchorSignatures[sig] = struct{}{}
	}
	t.acceptedHashes[hash] = struct{}{}
}
