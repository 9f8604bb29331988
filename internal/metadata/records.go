package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dyluth/traitforge/pkg/engine"
)

// Record is the view of one item shared by the analysis tools, whichever file
// it was read from.
type Record struct {
	ID              string      `json:"id"`
	Hash            string      `json:"hash,omitempty"`
	BackgroundColor string      `json:"background_color"`
	Attributes      []Attribute `json:"attributes"`
}

// ImageName is the image file name of the record.
func (r Record) ImageName() string {
	return r.ID + ".png"
}

// FindRecordsFile returns the first of collection_metadata.json and
// combine_metadata.json that exists in dir.
func FindRecordsFile(dir string) (string, error) {
	for _, name := range []string{CollectionFileName, CombinedFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("metadata file not found: expected %s or %s in %s", CollectionFileName, CombinedFileName, dir)
}

// LoadRecords reads items from a metadata directory, a combined metadata file or
// collection_metadata.json. Collection entries carry only present traits; when
// traitOrder is given their attributes are expanded to every category with
// NoneValue, matching the per-item files.
func LoadRecords(path string, traitOrder []string) ([]Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}

	if info.IsDir() {
		result, err := Combine(path)
		if err != nil {
			return nil, err
		}
		records := make([]Record, len(result.Items))
		for i, item := range result.Items {
			records[i] = recordFromItem(item)
		}
		return records, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("metadata file should contain an array of items: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, entry := range raw {
		r, err := decodeRecord(entry, traitOrder)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(entry json.RawMessage, traitOrder []string) (Record, error) {
	var probe struct {
		Attributes json.RawMessage `json:"attributes"`
		Traits     json.RawMessage `json:"traits"`
	}
	if err := json.Unmarshal(entry, &probe); err != nil {
		return Record{}, err
	}

	switch {
	case probe.Attributes != nil:
		var item ItemMetadata
		if err := json.Unmarshal(entry, &item); err != nil {
			return Record{}, err
		}
		return recordFromItem(item), nil
	case probe.Traits != nil:
		var cr CollectionRecord
		if err := json.Unmarshal(entry, &cr); err != nil {
			return Record{}, err
		}
		return recordFromCollection(cr, traitOrder), nil
	default:
		return Record{}, fmt.Errorf("neither attributes nor traits present")
	}
}

func recordFromItem(item ItemMetadata) Record {
	return Record{
		ID:              item.ID,
		BackgroundColor: item.BackgroundColor,
		Attributes:      item.Attributes,
	}
}

func recordFromCollection(cr CollectionRecord, traitOrder []string) Record {
	traits := cr.Traits
	if traits == nil {
		traits = &engine.Assignment{}
	}

	var attrs []Attribute
	if len(traitOrder) > 0 {
		attrs = Attributes(traits, traitOrder)
	} else {
		for _, t := range traits.Traits() {
			attrs = append(attrs, Attribute{TraitType: t.Category, Value: t.Value})
		}
	}
	return Record{
		ID:              strconv.Itoa(cr.ID),
		Hash:            cr.Hash,
		BackgroundColor: cr.BackgroundColor,
		Attributes:      attrs,
	}
}
