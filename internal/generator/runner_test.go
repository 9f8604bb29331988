package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/traitforge/internal/config"
	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/dyluth/traitforge/pkg/engine"
	"github.com/dyluth/traitforge/pkg/events"
	"github.com/fogleman/gg"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{
  "trait_order": ["Base", "Suit", "Head", "Eyes"],
  "traits": {
    "Base": {"rarity": 100, "options": [{"name": "Blue", "rarity": 50}, {"name": "Green", "rarity": 50}]},
    "Suit": {"rarity": 100, "options": [{"name": "Tux", "rarity": 50}, {"name": "Hoodie", "rarity": 50}]},
    "Head": {"rarity": 100, "options": [{"name": "Cap", "rarity": 40}, {"name": "Helmet", "rarity": 30}, {"name": "DB Saiyan", "rarity": 30}]},
    "Eyes": {"rarity": 70, "options": [{"name": "Laser", "rarity": 50}, {"name": "Wink", "rarity": 50}]}
  }
}`

const testRules = `{"rules": [
  {"if": {"trait_type": "Head", "value": ["Helmet"]}, "then": {"trait_type": "Eyes", "excluded_values": ["all"]}}
]}`

// setupProject writes catalog, rules and 8x8 layer images into a temp directory
// and returns a config pointing at it.
func setupProject(t *testing.T, size int, seed int64) (*config.Config, *catalog.Catalog, *catalog.RuleSet) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(testCatalog), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ruler.json"), []byte(testRules), 0644))

	cat, err := catalog.ParseCatalog([]byte(testCatalog), "test")
	require.NoError(t, err)
	for _, category := range cat.TraitOrder {
		for i, opt := range cat.Traits[category].Options {
			dc := gg.NewContext(8, 8)
			dc.SetRGBA255(40*i, 80, 200, 255)
			dc.DrawRectangle(0, 0, 8, 8)
			dc.Fill()
			path := filepath.Join(dir, "traits", category, opt.Name+".png")
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, dc.SavePNG(path))
		}
	}

	cfg := &config.Config{
		Version:    "1.0",
		Collection: config.CollectionConfig{Name: "Koby", Size: size, Symbol: "KOBY", ImageCID: "<your-ipfs-cid>"},
		Generation: config.GenerationConfig{
			Seed:             &seed,
			MaxAttempts:      200,
			MaxTraitAttempts: 20,
			PatternCeiling:   1,
			PatternSize:      4,
			Anchors:          []string{"Base", "Suit", "Head"},
		},
		Palette:     []string{"2eebb1", "9bb5ff"},
		Paths:       config.PathsConfig{Catalog: "config.json", Rules: "ruler.json", Traits: "traits", Output: "output"},
		Compositing: config.CompositingConfig{Width: 8, Height: 8, RareCategory: "Head", RareValues: []string{"DB Saiyan"}, RareOrder: []string{"Base", "Suit", "Head", "Eyes"}},
		Dir:         dir,
	}
	require.NoError(t, cfg.Validate())

	loadedCat, rules, err := LoadInputs(cfg)
	require.NoError(t, err)
	return cfg, loadedCat, rules
}

func TestRun_WritesOutputs(t *testing.T) {
	cfg, cat, rules := setupProject(t, 6, 42)

	runner, err := New(cfg, cat, rules, Options{})
	require.NoError(t, err)
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, len(result.Items)+len(result.Failures))
	require.NotEmpty(t, result.Items)
	assert.Equal(t, int64(42), result.Seed)
	assert.NotEmpty(t, result.RunID)

	for _, item := range result.Items {
		assert.FileExists(t, runner.store.ImagePath(item.ID))
		assert.FileExists(t, runner.store.ItemPath(item.ID))
		if head, _ := item.Traits.Get("Head"); head == "Helmet" {
			assert.False(t, item.Traits.Has("Eyes"))
		}
	}
	for _, f := range result.Failures {
		assert.NoFileExists(t, runner.store.ItemPath(f.ID))
	}

	records, err := metadata.LoadRecords(filepath.Join(cfg.OutputDir(), metadata.CollectionFileName), cat.TraitOrder)
	require.NoError(t, err)
	assert.Len(t, records, len(result.Items))

	assert.Equal(t, len(result.Items), result.Stats.TotalItems)
	assert.Equal(t, 6, result.Stats.Requested)
	assert.Equal(t, len(result.Items), result.Stats.UniqueAnchorSignatures)
	total := 0
	for _, n := range result.Stats.BackgroundDistribution {
		total += n
	}
	assert.Equal(t, len(result.Items), total)
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), metadata.StatsFileName))
}

func TestRun_DeterministicReplay(t *testing.T) {
	run := func() []string {
		cfg, cat, rules := setupProject(t, 8, 7)
		runner, err := New(cfg, cat, rules, Options{})
		require.NoError(t, err)
		result, err := runner.Run(context.Background())
		require.NoError(t, err)

		var out []string
		for _, item := range result.Items {
			out = append(out, item.Hash+"/"+item.BackgroundColor)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestRun_MissingLayerFailsItem(t *testing.T) {
	cfg, cat, rules := setupProject(t, 4, 3)
	require.NoError(t, os.RemoveAll(filepath.Join(cfg.TraitsDir(), "Base")))

	runner, err := New(cfg, cat, rules, Options{})
	require.NoError(t, err)
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	require.Len(t, result.Failures, 4)
	for _, f := range result.Failures {
		assert.Equal(t, engine.ReasonLayerLoadFailure, f.Reason)
	}
	assert.Equal(t, 4, result.Stats.ItemFailures[string(engine.ReasonLayerLoadFailure)])
	assert.Equal(t, 0, result.Stats.UniqueAnchorSignatures)
	assert.Equal(t, float64(0), result.Stats.SuccessRate)
}

func TestRun_UniquenessExhaustion(t *testing.T) {
	// 2 x 2 x 3 anchor triples: at most 12 items can be accepted.
	cfg, cat, rules := setupProject(t, 14, 11)

	runner, err := New(cfg, cat, rules, Options{})
	require.NoError(t, err)
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Items), 12)
	require.GreaterOrEqual(t, len(result.Failures), 2)
	for _, f := range result.Failures {
		assert.Contains(t, []engine.Reason{engine.ReasonUniquenessExhausted, engine.ReasonTraitValidationExhausted}, f.Reason)
	}
	assert.Equal(t, 14, len(result.Items)+len(result.Failures))
}

func TestRun_ConfigErrorAbortsWithoutOutput(t *testing.T) {
	cfg, cat, rules := setupProject(t, 3, 1)
	cfg.Generation.Anchors = []string{"Base", "Wings"}

	runner, err := New(cfg, cat, rules, Options{})
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, catalog.IsConfigError(err))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir(), metadata.CollectionFileName))
}

func TestRun_Cancelled(t *testing.T) {
	cfg, cat, rules := setupProject(t, 3, 1)
	runner, err := New(cfg, cat, rules, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_PublishesEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := events.NewClient(&redis.Options{Addr: mr.Addr()}, "koby")
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	cfg, cat, rules := setupProject(t, 3, 5)
	runner, err := New(cfg, cat, rules, Options{Publisher: client})
	require.NoError(t, err)
	result, err := runner.Run(ctx)
	require.NoError(t, err)

	var got []events.Type
	timeout := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, result.RunID, ev.RunID)
			got = append(got, ev.Type)
		case <-timeout:
			t.Fatalf("timeout waiting for events, got %v", got)
		}
	}
	assert.Equal(t, events.TypeRunStarted, got[0])
	assert.Equal(t, events.TypeRunCompleted, got[4])

	summary, err := client.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(result.Items), summary.Accepted)
}

func TestBackgroundShares(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, BackgroundShares(map[string]int{"a": 2, "b": 5, "c": 2}))
}
