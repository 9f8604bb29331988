package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Output file names under the output directory.
const (
	MetadataDirName    = "metadata"
	CollectionFileName = "collection_metadata.json"
	StatsFileName      = "collection_stats.json"
	CombinedFileName   = "combine_metadata.json"
)

// Store writes generation output beneath one directory:
//
//	<dir>/<id>.png
//	<dir>/metadata/<id>.json
//	<dir>/collection_metadata.json
//	<dir>/collection_stats.json
type Store struct {
	dir string
}

// NewStore creates the output and metadata directories.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, MetadataDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output root.
func (s *Store) Dir() string { return s.dir }

// ImagePath is where the composited image for id is written.
func (s *Store) ImagePath(id int) string {
	return filepath.Join(s.dir, strconv.Itoa(id)+".png")
}

// ItemPath is where the metadata for id is written.
func (s *Store) ItemPath(id int) string {
	return filepath.Join(s.dir, MetadataDirName, strconv.Itoa(id)+".json")
}

// WriteItem writes metadata/<id>.json.
func (s *Store) WriteItem(m ItemMetadata) error {
	id, err := strconv.Atoi(m.ID)
	if err != nil {
		return fmt.Errorf("item id %q is not numeric: %w", m.ID, err)
	}
	return WriteJSON(s.ItemPath(id), m)
}

// WriteCollection writes collection_metadata.json.
func (s *Store) WriteCollection(records []CollectionRecord) error {
	if records == nil {
		records = []CollectionRecord{}
	}
	return WriteJSON(filepath.Join(s.dir, CollectionFileName), records)
}

// WriteStats writes collection_stats.json.
func (s *Store) WriteStats(stats Stats) error {
	return WriteJSON(filepath.Join(s.dir, StatsFileName), stats)
}

// WriteJSON writes v as two-space indented JSON without HTML escaping. The file is
// written to a temporary name first and renamed into place.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
