package engine

import (
	"errors"
	"fmt"

	"github.com/dyluth/traitforge/pkg/catalog"
	"go.uber.org/zap"
)

// Default retry budgets.
const (
	DefaultMaxAttempts      = 1000
	DefaultMaxTraitAttempts = 100
)

// State is a step of the per-item generation state machine.
type State int

const (
	StateSelectingTrait State = iota
	StateValidatingTrait
	StateTraitFailed
	StateCheckingUniqueness
	StateAccepted
	StateItemFailed
)

func (s State) String() string {
	switch s {
	case StateSelectingTrait:
		return "SELECTING_TRAIT"
	case StateValidatingTrait:
		return "VALIDATING_TRAIT"
	case StateTraitFailed:
		return "TRAIT_FAILED"
	case StateCheckingUniqueness:
		return "CHECKING_UNIQUENESS"
	case StateAccepted:
		return "ACCEPTED"
	case StateItemFailed:
		return "ITEM_FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Item is an accepted member of the collection.
type Item struct {
	ID              int         `json:"id"`
	Traits          *Assignment `json:"traits"`
	Hash            string      `json:"hash"`
	BackgroundColor string      `json:"background_color"`
}

// FinalizeFunc persists an accepted item before it is committed to the tracker.
// Returning an error abandons the item without touching uniqueness state; wrap
// ErrLayerLoad to report a layer load failure.
type FinalizeFunc func(*Item) error

// Options configures an Orchestrator.
type Options struct {
	// Anchors are generated first and their joint value must be unique.
	Anchors []string
	// MaxAttempts bounds whole-item attempts for one identifier.
	MaxAttempts int
	// MaxTraitAttempts bounds selections for one category within an attempt.
	MaxTraitAttempts int
	// Palette of background colours, sampled uniformly after acceptance.
	Palette []string
	// Finalize, when set, runs between acceptance and commit.
	Finalize FinalizeFunc
	Logger   *zap.Logger
}

// Orchestrator drives per-item generation against a shared Tracker.
type Orchestrator struct {
	catalog *catalog.Catalog
	rules   *RuleEngine
	tracker *Tracker
	rng     Source
	order   []string
	opts    Options
	log     *zap.Logger

	attemptFailures map[AttemptFailure]int
}

// NewOrchestrator validates opts against c and builds an orchestrator. Unknown
// anchor categories and non-positive budgets are configuration errors.
func NewOrchestrator(c *catalog.Catalog, rs *catalog.RuleSet, tracker *Tracker, rng Source, opts Options) (*Orchestrator, error) {
	if c == nil || tracker == nil || rng == nil {
		return nil, &catalog.ConfigError{Source: "engine", Msg: "catalog, tracker and random source are required"}
	}
	if opts.MaxAttempts <= 0 {
		return nil, &catalog.ConfigError{Source: "engine", Msg: fmt.Sprintf("max attempts must be positive, got %d", opts.MaxAttempts)}
	}
	if opts.MaxTraitAttempts <= 0 {
		return nil, &catalog.ConfigError{Source: "engine", Msg: fmt.Sprintf("max trait attempts must be positive, got %d", opts.MaxTraitAttempts)}
	}
	for _, a := range opts.Anchors {
		if _, ok := c.Traits[a]; !ok {
			return nil, &catalog.ConfigError{Source: "engine", Msg: fmt.Sprintf("anchor category '%s' is not in the catalog", a)}
		}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Orchestrator{
		catalog:         c,
		rules:           NewRuleEngine(rs),
		tracker:         tracker,
		rng:             rng,
		order:           GenerationOrder(c, opts.Anchors),
		opts:            opts,
		log:             log.With(zap.String("component", "engine")),
		attemptFailures: make(map[AttemptFailure]int),
	}, nil
}

// GenerationOrder lists anchors first, then the remaining categories in catalog order.
func GenerationOrder(c *catalog.Catalog, anchors []string) []string {
	order := make([]string, 0, len(c.TraitOrder))
	seen := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		if !seen[a] {
			order = append(order, a)
			seen[a] = true
		}
	}
	for _, cat := range c.TraitOrder {
		if !seen[cat] {
			order = append(order, cat)
		}
	}
	return order
}

// Order returns the category processing order.
func (o *Orchestrator) Order() []string {
	return append([]string(nil), o.order...)
}

// Tracker returns the shared uniqueness tracker.
func (o *Orchestrator) Tracker() *Tracker { return o.tracker }

// AttemptFailures returns per-attempt rejection counts accumulated so far.
func (o *Orchestrator) AttemptFailures() map[AttemptFailure]int {
	out := make(map[AttemptFailure]int, len(o.attemptFailures))
	for k, v := range o.attemptFailures {
		out[k] = v
	}
	return out
}

// Generate produces the item for id, retrying whole attempts up to MaxAttempts.
//
// It returns an *ItemError when the identifier is abandoned (budget exhausted or
// finalizer failure). Any other error is a configuration problem and fatal.
func (o *Orchestrator) Generate(id int) (*Item, error) {
	var last AttemptFailure
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		assignment, err := o.assemble()
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			last = o.reject(id, attempt, FailTraitValidation)
			continue
		}

		hash := ContentHash(assignment)
		if o.tracker.HasHash(hash) {
			last = o.reject(id, attempt, FailDuplicateHash)
			continue
		}
		if f := o.tracker.Check(assignment); f != "" {
			last = o.reject(id, attempt, f)
			continue
		}

		item := &Item{
			ID:              id,
			Traits:          assignment,
			Hash:            hash,
			BackgroundColor: o.pickBackground(),
		}

		if o.opts.Finalize != nil {
			if err := o.opts.Finalize(item); err != nil {
				reason := ReasonOutputFailure
				if errors.Is(err, ErrLayerLoad) {
					reason = ReasonLayerLoadFailure
				}
				return nil, &ItemError{ID: id, Reason: reason, Attempts: attempt, Err: err}
			}
		}

		o.tracker.Commit(assignment, hash)
		o.log.Debug("item accepted",
			zap.Int("item_id", id),
			zap.Int("attempt", attempt),
			zap.String("hash", hash),
			zap.Stringer("state", StateAccepted),
		)
		return item, nil
	}

	return nil, &ItemError{ID: id, Reason: last.Reason(), Attempts: o.opts.MaxAttempts}
}

// assemble runs one pass over every category. It returns nil when a category
// exhausts its per-trait budget.
func (o *Orchestrator) assemble() (*Assignment, error) {
	a := &Assignment{}
	for _, category := range o.order {
		def := o.catalog.Traits[category]
		if !Include(o.rng, def.Rarity) {
			continue
		}

		value, ok, err := o.selectTrait(a, category, def)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		a.Set(category, value)
	}
	return a, nil
}

// selectTrait draws candidates for category until one passes the rule engine or
// the per-trait budget runs out.
func (o *Orchestrator) selectTrait(a *Assignment, category string, def catalog.Category) (string, bool, error) {
	for i := 0; i < o.opts.MaxTraitAttempts; i++ {
		opt, err := SelectWeighted(o.rng, def.Options)
		if err != nil {
			return "", false, &catalog.ConfigError{Source: "catalog", Msg: fmt.Sprintf("category '%s'", category), Err: err}
		}
		if o.rules.Allows(a, category, opt.Name) {
			return opt.Name, true, nil
		}
	}
	o.log.Debug("trait validation exhausted",
		zap.String("category", category),
		zap.Int("trait_attempts", o.opts.MaxTraitAttempts),
		zap.Stringer("state", StateTraitFailed),
	)
	return "", false, nil
}

func (o *Orchestrator) reject(id, attempt int, f AttemptFailure) AttemptFailure {
	o.attemptFailures[f]++
	o.log.Debug("attempt rejected",
		zap.Int("item_id", id),
		zap.Int("attempt", attempt),
		zap.String("reason", string(f)),
	)
	return f
}

func (o *Orchestrator) pickBackground() string {
	if len(o.opts.Palette) == 0 {
		return ""
	}
	return o.opts.Palette[o.rng.Intn(len(o.opts.Palette))]
}
