package engine

import (
	"errors"
	"fmt"
)

// Reason classifies why an item identifier produced no item.
type Reason string

const (
	// ReasonTraitValidationExhausted: the last attempt could not fill a category
	// within the per-trait budget.
	ReasonTraitValidationExhausted Reason = "trait_validation_exhausted"
	// ReasonUniquenessExhausted: the last attempt collided with anchor, pattern or
	// hash constraints.
	ReasonUniquenessExhausted Reason = "uniqueness_exhausted"
	// ReasonLayerLoadFailure: the item was accepted but a layer image could not be loaded.
	ReasonLayerLoadFailure Reason = "layer_load_failure"
	// ReasonOutputFailure: the item was accepted but its output could not be written.
	ReasonOutputFailure Reason = "output_failure"
)

// AttemptFailure classifies a single rejected attempt.
type AttemptFailure string

const (
	FailTraitValidation AttemptFailure = "trait_validation"
	FailDuplicateHash   AttemptFailure = "duplicate_hash"
	FailAnchorSignature AttemptFailure = "anchor_signature"
	FailPatternCeiling  AttemptFailure = "pattern_ceiling"
)

// Reason maps an attempt failure to the item-level reason it escalates to.
func (f AttemptFailure) Reason() Reason {
	if f == FailTraitValidation {
		return ReasonTraitValidationExhausted
	}
	return ReasonUniquenessExhausted
}

// ErrLayerLoad marks finalizer errors caused by a missing or unreadable layer image.
var ErrLayerLoad = errors.New("layer load failure")

// ItemError reports that an item identifier was abandoned. It is never fatal to
// the run; callers count it and move on to the next identifier.
type ItemError struct {
	ID       int
	Reason   Reason
	Attempts int
	Err      error
}

func (e *ItemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("item %d: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("item %d: %s after %d attempts", e.ID, e.Reason, e.Attempts)
}

func (e *ItemError) Unwrap() error { return e.Err }

// ReasonOf extracts the item failure reason from err.
func ReasonOf(err error) (Reason, bool) {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Reason, true
	}
	return "", false
}
