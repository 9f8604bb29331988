package items

import (
	"fmt"
	"io"

	"github.com/dyluth/traitforge/internal/filter"
	"github.com/dyluth/traitforge/internal/metadata"
)

// OutputFormat specifies how to format the item list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated traits
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseFormat validates a user-supplied output format.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatDefault:
		return OutputFormatDefault, nil
	case OutputFormatJSONL:
		return OutputFormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected default or jsonl)", s)
	}
}

// Filter returns the records matching the criteria, preserving order.
func Filter(records []metadata.Record, criteria *filter.Criteria) []metadata.Record {
	if criteria == nil || !criteria.HasFilters() {
		return records
	}

	out := make([]metadata.Record, 0, len(records))
	for _, r := range records {
		if criteria.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// List filters records and writes them to the provided writer.
// Returns the number of items written.
func List(w io.Writer, records []metadata.Record, format OutputFormat, criteria *filter.Criteria, collection string) (int, error) {
	matched := Filter(records, criteria)

	switch format {
	case OutputFormatJSONL:
		if err := FormatJSONL(w, matched); err != nil {
			return 0, err
		}
		return len(matched), nil
	case OutputFormatDefault, "":
		return FormatTable(w, matched, collection)
	default:
		return 0, fmt.Errorf("unsupported output format: %s", format)
	}
}
