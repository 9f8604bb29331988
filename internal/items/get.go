package items

import (
	"io"

	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/internal/resolver"
)

// Get resolves a single item by ID or hash prefix and writes it as JSON.
func Get(w io.Writer, records []metadata.Record, ref string) error {
	r, err := resolver.Resolve(records, ref)
	if err != nil {
		return err
	}
	return FormatSingleJSON(w, r)
}
