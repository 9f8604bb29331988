package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// projectFiles are the paths Initialize owns.
var projectFiles = []string{ConfigFileName, "config.json", "ruler.json", "traits"}

// CheckExisting checks if any project files already exist in dir
// Returns an error if they do, nil otherwise
func CheckExisting(dir string) error {
	var existing []string
	for _, name := range projectFiles {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if info.IsDir() {
			name += "/"
		}
		existing = append(existing, name)
	}

	if len(existing) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("project already initialized\n\nFound existing")
	if len(existing) == 1 {
		fmt.Fprintf(&b, ": %s\n", existing[0])
	} else {
		b.WriteString(" files:\n")
		for _, file := range existing {
			fmt.Fprintf(&b, "  - %s\n", file)
		}
	}
	b.WriteString("\nUse 'traitforge init --force' to reinitialize (this will overwrite existing configuration)")

	return fmt.Errorf("%s", b.String())
}
