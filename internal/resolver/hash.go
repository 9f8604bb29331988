package resolver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
)

const (
	// MinShortHashLength is the minimum length for a hash prefix
	MinShortHashLength = 6
	// FullHashLength is the length of a full content hash (hex-encoded SHA-256)
	FullHashLength = 64
)

// NotFoundError is returned when no item matches the reference
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: %s", e.Ref)
}

// AmbiguousError is returned when multiple items match a hash prefix
type AmbiguousError struct {
	Prefix  string
	Matches []metadata.Record
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous hash prefix '%s' matches %d items", e.Prefix, len(e.Matches))
}

// Resolve finds a single item by numeric ID or content hash prefix.
// References shorter than MinShortHashLength that parse as integers are
// treated as IDs; anything else must be a hash prefix of at least
// MinShortHashLength characters.
func Resolve(records []metadata.Record, ref string) (metadata.Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return metadata.Record{}, fmt.Errorf("item reference cannot be empty")
	}

	if len(ref) < MinShortHashLength {
		if _, err := strconv.Atoi(ref); err != nil {
			return metadata.Record{}, fmt.Errorf("hash prefix must be at least %d characters (got %d)", MinShortHashLength, len(ref))
		}
		for _, r := range records {
			if r.ID == ref {
				return r, nil
			}
		}
		return metadata.Record{}, &NotFoundError{Ref: ref}
	}

	return ResolveHash(records, ref)
}

// ResolveHash matches a hash prefix (case-insensitive) against the records.
func ResolveHash(records []metadata.Record, prefix string) (metadata.Record, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) > FullHashLength {
		return metadata.Record{}, fmt.Errorf("hash prefix longer than %d characters", FullHashLength)
	}

	var matches []metadata.Record
	for _, r := range records {
		if r.Hash != "" && strings.HasPrefix(r.Hash, prefix) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return metadata.Record{}, &NotFoundError{Ref: prefix}
	case 1:
		return matches[0], nil
	default:
		return metadata.Record{}, &AmbiguousError{Prefix: prefix, Matches: matches}
	}
}

// FormatAmbiguousError creates a user-friendly error message listing candidates
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous hash prefix '%s' matches %d items:\n", err.Prefix, len(err.Matches))

	for i, r := range err.Matches {
		if i >= 10 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(err.Matches)-10)
			break
		}
		fmt.Fprintf(&b, "  #%s  %s\n", r.ID, r.Hash[:12])
	}

	b.WriteString("\nPlease provide a longer prefix to uniquely identify the item.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError
func IsAmbiguousError(err error) bool {
	var ae *AmbiguousError
	return errors.As(err, &ae)
}
