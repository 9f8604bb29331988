package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Problem describes a metadata file skipped while combining.
type Problem struct {
	File   string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s (%s)", p.File, p.Reason)
}

// CombineResult holds the valid items in numeric id order and the skipped files.
type CombineResult struct {
	Items      []ItemMetadata
	Problems   []Problem
	TraitTypes []string
}

type itemFile struct {
	id   int
	path string
}

// listItemFiles returns the *.json files of dir sorted by numeric stem. Files with
// a non-numeric stem are reported as problems.
func listItemFiles(dir string) ([]itemFile, []Problem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("metadata directory %s not found", dir)
		}
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, err
	}

	var files []itemFile
	var problems []Problem
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), ".json")
		id, err := strconv.Atoi(stem)
		if err != nil {
			problems = append(problems, Problem{File: filepath.Base(m), Reason: "non-numeric file name"})
			continue
		}
		files = append(files, itemFile{id: id, path: m})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].id < files[j].id })
	return files, problems, nil
}

// Combine reads every metadata/<id>.json in dir in numeric order. Files that are
// not valid JSON or lack a required field are reported in Problems and skipped.
// It fails when dir has no JSON files or none of them are valid.
func Combine(dir string) (*CombineResult, error) {
	files, problems, err := listItemFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 && len(problems) == 0 {
		return nil, fmt.Errorf("no JSON files found in %s", dir)
	}

	result := &CombineResult{Problems: problems}
	traitTypes := make(map[string]bool)
	for _, f := range files {
		item, problem := readItem(f.path)
		if problem != "" {
			result.Problems = append(result.Problems, Problem{File: filepath.Base(f.path), Reason: problem})
			continue
		}
		for _, a := range item.Attributes {
			traitTypes[a.TraitType] = true
		}
		result.Items = append(result.Items, *item)
	}

	if len(result.Items) == 0 {
		return result, fmt.Errorf("no valid metadata files to combine")
	}

	for t := range traitTypes {
		result.TraitTypes = append(result.TraitTypes, t)
	}
	sort.Strings(result.TraitTypes)
	return result, nil
}

func readItem(path string) (*ItemMetadata, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Sprintf("Error: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, "Invalid JSON"
	}
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, "Missing fields: " + strings.Join(missing, ", ")
	}

	var item ItemMetadata
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Sprintf("Error: %v", err)
	}
	return &item, ""
}
