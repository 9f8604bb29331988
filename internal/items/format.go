package items

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/internal/printer"
)

const maxTraitsWidth = 60

// FormatTable writes items as a table with columns ID, HASH, BACKGROUND and TRAITS.
// Returns the number of items formatted.
func FormatTable(w io.Writer, records []metadata.Record, collection string) (int, error) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No items found in collection '%s'\n", collection)
		return 0, nil
	}

	fmt.Fprintf(w, "Items in collection '%s':\n\n", collection)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			formatHash(r.Hash),
			formatBackground(r.BackgroundColor),
			formatTraits(r.Attributes),
		})
	}
	if err := printer.Table(w, []string{"ID", "HASH", "BACKGROUND", "TRAITS"}, rows); err != nil {
		return 0, fmt.Errorf("failed to render table: %w", err)
	}

	noun := "item"
	if len(records) != 1 {
		noun = "items"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(records), noun)

	return len(records), nil
}

// FormatJSONL writes records as line-delimited JSON, one object per line.
func FormatJSONL(w io.Writer, records []metadata.Record) error {
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal item to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one record as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, r metadata.Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal item to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

func formatHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func formatBackground(hex string) string {
	if hex == "" {
		return "-"
	}
	return "#" + strings.TrimPrefix(hex, "#")
}

// formatTraits lists present traits; None values are omitted.
func formatTraits(attrs []metadata.Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a.Value == metadata.NoneValue {
			continue
		}
		parts = append(parts, a.TraitType+": "+a.Value)
	}
	if len(parts) == 0 {
		return "-"
	}

	s := strings.Join(parts, ", ")
	if len(s) > maxTraitsWidth {
		return s[:maxTraitsWidth-3] + "..."
	}
	return s
}
