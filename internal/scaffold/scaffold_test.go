package scaffold

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/traitforge/internal/config"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet(t *testing.T) {
	orig := printer.Out
	printer.Out = io.Discard
	t.Cleanup(func() { printer.Out = orig })
}

func TestInitialize(t *testing.T) {
	quiet(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(dir, false))

	for _, name := range []string{ConfigFileName, "config.json", "ruler.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	cfg, err := config.Load(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "Koby", cfg.Collection.Name)
	assert.Equal(t, 1000, cfg.Generation.MaxAttempts)

	cat, err := catalog.LoadCatalog(cfg.CatalogPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Suit", "Mouth", "Head", "Eyes"}, cat.TraitOrder)

	for _, name := range cat.TraitOrder {
		for _, opt := range cat.Traits[name].Options {
			path := filepath.Join(cfg.TraitsDir(), name, opt.Name+".png")
			img, err := gg.LoadPNG(path)
			require.NoError(t, err, path)
			assert.Equal(t, placeholderSize, img.Bounds().Dx())
		}
	}
}

func TestInitialize_Force(t *testing.T) {
	quiet(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("old content"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "traits", "Old"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "traits", "Old", "x.png"), []byte("old"), 0644))

	require.Error(t, CheckExisting(dir))
	require.NoError(t, Initialize(dir, true))

	assert.NoDirExists(t, filepath.Join(dir, "traits", "Old"))
	content, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.NotEqual(t, "old content", string(content))
}

func TestCheckExisting(t *testing.T) {
	t.Run("clean directory", func(t *testing.T) {
		assert.NoError(t, CheckExisting(t.TempDir()))
	})

	t.Run("single existing file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ruler.json"), []byte("{}"), 0644))

		err := CheckExisting(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project already initialized")
		assert.Contains(t, err.Error(), "Found existing: ruler.json")
		assert.Contains(t, err.Error(), "traitforge init --force")
	})

	t.Run("multiple existing files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(""), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "traits"), 0755))

		err := CheckExisting(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "  - traitforge.yml")
		assert.Contains(t, err.Error(), "  - traits/")
	})
}

func TestPlaceholderColor_Distinct(t *testing.T) {
	assert.NotEqual(t, placeholderColor(0, 0), placeholderColor(0, 1))
	assert.NotEqual(t, placeholderColor(0, 0), placeholderColor(1, 0))
}
