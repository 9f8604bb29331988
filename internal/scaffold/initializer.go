package scaffold

import (
	"embed"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/dyluth/traitforge/internal/config"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/fogleman/gg"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	// ConfigFileName is the project configuration file created by Initialize.
	ConfigFileName = "traitforge.yml"
	// placeholderSize is the edge length of generated placeholder layers.
	placeholderSize = 96
)

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates a starter project in dir: configuration, catalog, rules
// and a placeholder PNG for every trait option.
// If force is true, it will remove existing project files first.
func Initialize(dir string, force bool) error {
	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return err
	}

	if err := writeFiles(files); err != nil {
		return err
	}

	cat, err := catalog.LoadCatalog(filepath.Join(dir, "config.json"))
	if err != nil {
		return fmt.Errorf("created catalog is invalid: %w", err)
	}

	if err := writePlaceholders(filepath.Join(dir, "traits"), cat); err != nil {
		return err
	}

	return validateCreatedFiles(dir)
}

// handleForce removes existing files if --force was specified
func handleForce(dir string) error {
	for _, name := range projectFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			printer.Warning("Removing existing %s...\n", name)
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles(dir string) ([]FileInfo, error) {
	templates := []struct {
		template string
		target   string
	}{
		{"templates/traitforge.yml.tmpl", ConfigFileName},
		{"templates/config.json.tmpl", "config.json"},
		{"templates/ruler.json.tmpl", "ruler.json"},
	}

	files := make([]FileInfo, 0, len(templates))
	for _, t := range templates {
		content, err := templatesFS.ReadFile(t.template)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", t.target, err)
		}
		files = append(files, FileInfo{
			Path:        filepath.Join(dir, t.target),
			Content:     content,
			Permissions: 0644,
		})
	}

	return files, nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.MkdirAll(filepath.Dir(file.Path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", file.Path, err)
		}
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return nil
}

// writePlaceholders draws one layer per option. Each category occupies its own
// band of the canvas so stacked layers stay distinguishable.
func writePlaceholders(traitsDir string, cat *catalog.Catalog) error {
	bands := len(cat.TraitOrder)
	band := float64(placeholderSize) / float64(bands)

	for ci, name := range cat.TraitOrder {
		category := cat.Traits[name]
		if err := os.MkdirAll(filepath.Join(traitsDir, name), 0755); err != nil {
			return fmt.Errorf("failed to create layer directory for %s: %w", name, err)
		}

		for oi, opt := range category.Options {
			dc := gg.NewContext(placeholderSize, placeholderSize)
			dc.SetColor(placeholderColor(ci, oi))
			dc.DrawRectangle(0, float64(ci)*band, placeholderSize, band)
			dc.Fill()

			path := filepath.Join(traitsDir, name, opt.Name+".png")
			if err := dc.SavePNG(path); err != nil {
				return fmt.Errorf("failed to write placeholder %s: %w", path, err)
			}
		}
	}
	return nil
}

func placeholderColor(category, option int) color.RGBA {
	return color.RGBA{
		R: uint8(60 + 40*category%196),
		G: uint8(90 + 55*option%166),
		B: uint8(200 - 30*category%200),
		A: 255,
	}
}

// validateCreatedFiles loads the created configuration and rules end to end
func validateCreatedFiles(dir string) error {
	cfg, err := config.Load(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return fmt.Errorf("created %s is invalid: %w", ConfigFileName, err)
	}

	cat, err := catalog.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("created catalog is invalid: %w", err)
	}
	if _, err := catalog.LoadRules(cfg.RulesPath(), cat); err != nil {
		return fmt.Errorf("created rules are invalid: %w", err)
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	printer.Println()
	printer.Success("Successfully initialized traitforge project!\n")
	printer.Println("\nCreated:")
	printer.Println("  ✓ traitforge.yml")
	printer.Println("  ✓ config.json (trait catalog)")
	printer.Println("  ✓ ruler.json (exclusion rules)")
	printer.Println("  ✓ traits/ (placeholder layers)")
	printer.Println("\nNext steps:")
	printer.Println("  1. Replace the placeholder PNGs in traits/<Category>/<Value>.png")
	printer.Println("  2. Edit config.json and ruler.json to describe your collection")
	printer.Println("  3. Run 'traitforge generate' to build the collection")
}
