// Package generator runs one collection generation: it wires the trait engine to
// the compositor and metadata store, accounts for failed identifiers and writes
// the collection-level outputs.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dyluth/traitforge/internal/compositor"
	"github.com/dyluth/traitforge/internal/config"
	"github.com/dyluth/traitforge/internal/logging"
	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/dyluth/traitforge/pkg/engine"
	"github.com/dyluth/traitforge/pkg/events"
	"github.com/google/uuid"
)

// Failure records an identifier that produced no item.
type Failure struct {
	ID     int
	Reason engine.Reason
	Err    error
}

// Result summarises a finished run.
type Result struct {
	RunID    string
	Seed     int64
	Items    []*engine.Item
	Failures []Failure
	Stats    metadata.Stats
}

// FailureCounts groups failures by reason.
func (r *Result) FailureCounts() map[engine.Reason]int {
	out := make(map[engine.Reason]int)
	for _, f := range r.Failures {
		out[f.Reason]++
	}
	return out
}

// Options carries the collaborators of a Runner. Nil fields get no-op defaults.
type Options struct {
	Logger    *logging.Logger
	Publisher events.Publisher
	// Now is used for the clock seed and durations; defaults to time.Now.
	Now func() time.Time
}

// Runner generates a collection from a loaded configuration.
type Runner struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	rules      *catalog.RuleSet
	base       *logging.Logger
	log        *logging.Logger
	publisher  events.Publisher
	now        func() time.Time
	compositor *compositor.Compositor
	store      *metadata.Store
	template   metadata.Template
}

// LoadInputs reads the catalog and rule files named by cfg. An empty rules path
// means no exclusion rules.
func LoadInputs(cfg *config.Config) (*catalog.Catalog, *catalog.RuleSet, error) {
	cat, err := catalog.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Paths.Rules == "" {
		return cat, &catalog.RuleSet{}, nil
	}
	rules, err := catalog.LoadRules(cfg.RulesPath(), cat)
	if err != nil {
		return nil, nil, err
	}
	return cat, rules, nil
}

// New prepares a runner and its output directory.
func New(cfg *config.Config, cat *catalog.Catalog, rules *catalog.RuleSet, opts Options) (*Runner, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	store, err := metadata.NewStore(cfg.OutputDir())
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:       cfg,
		catalog:   cat,
		rules:     rules,
		base:      opts.Logger,
		log:       opts.Logger.With("component", "generator"),
		publisher: opts.Publisher,
		now:       opts.Now,
		compositor: compositor.New(cfg.TraitsDir(), cat.TraitOrder, compositor.Options{
			Width:        cfg.Compositing.Width,
			Height:       cfg.Compositing.Height,
			RareCategory: cfg.Compositing.RareCategory,
			RareValues:   cfg.Compositing.RareValues,
			RareOrder:    cfg.Compositing.RareOrder,
		}),
		store: store,
		template: metadata.Template{
			Name:        cfg.Collection.Name,
			Symbol:      cfg.Collection.Symbol,
			Description: cfg.Collection.Description,
			ExternalURL: cfg.Collection.ExternalURL,
			ImageCID:    cfg.Collection.ImageCID,
		},
	}, nil
}

// Run generates identifiers 1..size in order. Item-level failures are counted and
// skipped; configuration errors abort before any output is written. Cancelling
// ctx stops the run between items without writing collection files.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := r.now()
	seed := r.seed(start)
	runID := uuid.New().String()
	log := r.log.With("run_id", runID)

	tracker := engine.NewTracker(r.cfg.Generation.Anchors, r.cfg.Generation.PatternCeiling, r.cfg.Generation.PatternSize)
	orc, err := engine.NewOrchestrator(r.catalog, r.rules, tracker, engine.NewSource(seed), engine.Options{
		Anchors:          r.cfg.Generation.Anchors,
		MaxAttempts:      r.cfg.Generation.MaxAttempts,
		MaxTraitAttempts: r.cfg.Generation.MaxTraitAttempts,
		Palette:          r.cfg.Palette,
		Finalize:         r.finalize,
		Logger:           r.base.With("run_id", runID).Zap(),
	})
	if err != nil {
		return nil, err
	}

	size := r.cfg.Collection.Size
	log.Event("run_started", "seed", seed, "size", size, "categories", len(r.catalog.TraitOrder))
	r.publish(ctx, log, &events.Event{Type: events.TypeRunStarted, RunID: runID, Total: size, Seed: seed})

	result := &Result{RunID: runID, Seed: seed}
	records := make([]metadata.CollectionRecord, 0, size)
	backgrounds := make(map[string]int)

	for id := 1; id <= size; id++ {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", "next_item_id", id)
			return nil, err
		}

		item, err := orc.Generate(id)
		if err != nil {
			var ie *engine.ItemError
			if !errors.As(err, &ie) {
				return nil, err
			}
			result.Failures = append(result.Failures, Failure{ID: id, Reason: ie.Reason, Err: err})
			log.Event("item_failed", "item_id", id, "reason", string(ie.Reason), "error", err)
			r.publish(ctx, log, &events.Event{Type: events.TypeItemFailed, RunID: runID, ItemID: id, Reason: string(ie.Reason)})
			continue
		}

		result.Items = append(result.Items, item)
		records = append(records, metadata.NewCollectionRecord(item))
		backgrounds[item.BackgroundColor]++
		log.Event("item_accepted", "item_id", id, "hash", item.Hash, "background_color", item.BackgroundColor)
		r.publish(ctx, log, &events.Event{Type: events.TypeItemAccepted, RunID: runID, ItemID: id, Hash: item.Hash, Background: item.BackgroundColor})
	}

	result.Stats = r.stats(runID, seed, result, orc, backgrounds, start)

	if err := r.store.WriteCollection(records); err != nil {
		return nil, err
	}
	if err := r.store.WriteStats(result.Stats); err != nil {
		return nil, err
	}

	log.Event("run_completed",
		"accepted", len(result.Items),
		"failed", len(result.Failures),
		"success_rate", result.Stats.SuccessRate,
		"duration_ms", result.Stats.DurationMs,
	)
	r.publish(ctx, log, &events.Event{
		Type:     events.TypeRunCompleted,
		RunID:    runID,
		Total:    size,
		Accepted: len(result.Items),
		Failed:   len(result.Failures),
		Seed:     seed,
	})

	return result, nil
}

// finalize writes the image and metadata of an accepted item. A metadata failure
// removes the image so the two outputs stay consistent.
func (r *Runner) finalize(item *engine.Item) error {
	imagePath := r.store.ImagePath(item.ID)
	if err := r.compositor.Render(item.Traits, imagePath); err != nil {
		return err
	}
	meta := metadata.BuildItemMetadata(item, r.catalog.TraitOrder, r.template)
	if err := r.store.WriteItem(meta); err != nil {
		os.Remove(imagePath)
		return err
	}
	return nil
}

func (r *Runner) seed(start time.Time) int64 {
	if r.cfg.Generation.Seed != nil {
		return *r.cfg.Generation.Seed
	}
	seed := start.UnixNano()
	r.log.Info("no seed configured, using clock seed", "seed", seed)
	return seed
}

func (r *Runner) stats(runID string, seed int64, result *Result, orc *engine.Orchestrator, backgrounds map[string]int, start time.Time) metadata.Stats {
	size := r.cfg.Collection.Size
	ts := orc.Tracker().Stats()

	attempts := make(map[string]int)
	for k, v := range orc.AttemptFailures() {
		attempts[string(k)] = v
	}
	items := make(map[string]int)
	for k, v := range result.FailureCounts() {
		items[string(k)] = v
	}

	return metadata.Stats{
		RunID:                  runID,
		Seed:                   seed,
		Requested:              size,
		TotalItems:             len(result.Items),
		SuccessRate:            float64(len(result.Items)) / float64(size) * 100,
		UniqueAnchorSignatures: ts.AnchorSignatures,
		UniquePatterns:         ts.Patterns,
		AttemptFailures:        attempts,
		ItemFailures:           items,
		BackgroundDistribution: backgrounds,
		DurationMs:             r.now().Sub(start).Milliseconds(),
	}
}

func (r *Runner) publish(ctx context.Context, log *logging.Logger, e *events.Event) {
	if err := r.publisher.Publish(ctx, e); err != nil {
		log.Warn("failed to publish event", "type", string(e.Type), "error", err)
	}
}

// BackgroundShares returns the background distribution sorted by count, then colour.
func BackgroundShares(dist map[string]int) []string {
	colours := make([]string, 0, len(dist))
	for c := range dist {
		colours = append(colours, c)
	}
	sort.Slice(colours, func(i, j int) bool {
		if dist[colours[i]] != dist[colours[j]] {
			return dist[colours[i]] > dist[colours[j]]
		}
		return colours[i] < colours[j]
	})
	return colours
}

// Summary is a one-line human summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d of %d items generated (%.2f%%)", r.Stats.TotalItems, r.Stats.Requested, r.Stats.SuccessRate)
}
