package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RewriteCID points the image of every metadata/<id>.json in dir at
// ipfs://<cid>/<id>.png. It returns the number of files rewritten.
func RewriteCID(dir, cid string) (int, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return 0, fmt.Errorf("cid cannot be empty")
	}

	files, _, err := listItemFiles(dir)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return updated, fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
		}
		var item ItemMetadata
		if err := json.Unmarshal(data, &item); err != nil {
			return updated, fmt.Errorf("failed to parse %s: %w", filepath.Base(f.path), err)
		}

		item.Image = ImageURI(cid, strconv.Itoa(f.id))
		if err := WriteJSON(f.path, item); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
