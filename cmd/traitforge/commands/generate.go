package commands

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/dyluth/traitforge/internal/config"
	"github.com/dyluth/traitforge/internal/generator"
	"github.com/dyluth/traitforge/internal/logging"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/dyluth/traitforge/pkg/engine"
	"github.com/dyluth/traitforge/pkg/events"
	"github.com/spf13/cobra"
)

var (
	generateSeed int64
	generateSize int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the collection",
	Long: `Generate every item of the collection: images under <output>/ and per-item
metadata under <output>/metadata/, plus collection_metadata.json and
collection_stats.json.

Items that cannot be generated within the attempt budgets are skipped and
reported; their identifiers are never reused.

When events.redis_url is configured, progress events are published so a
second terminal can follow the run with 'traitforge watch'.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Seed for a reproducible run (overrides generation.seed)")
	generateCmd.Flags().IntVar(&generateSize, "size", 0, "Number of items to generate (overrides collection.size)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyGenerateOverrides(cmd, cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	cat, rules, err := generator.LoadInputs(cfg)
	if err != nil {
		if catalog.IsConfigError(err) {
			return printer.Error("invalid trait configuration", err.Error(), []string{"Fix the catalog or rules file and run again"})
		}
		return err
	}

	publisher, closePublisher, err := newPublisher(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	runner, err := generator.New(cfg, cat, rules, generator.Options{Logger: log, Publisher: publisher})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOr(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Step("Generating %d items for '%s'...\n", cfg.Collection.Size, cfg.Collection.Name)
	result, err := runner.Run(ctx)
	if err != nil {
		if catalog.IsConfigError(err) {
			return printer.Error("invalid trait configuration", err.Error(), nil)
		}
		return printer.Error("generation failed", err.Error(), nil)
	}

	printGenerateResult(cfg, result)
	return nil
}

func applyGenerateOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("seed") {
		seed := generateSeed
		cfg.Generation.Seed = &seed
	}
	if cmd.Flags().Changed("size") {
		cfg.Collection.Size = generateSize
		if err := cfg.Validate(); err != nil {
			return printer.Error("invalid --size", err.Error(), nil)
		}
	}
	return nil
}

// newPublisher connects to Redis when events are configured; otherwise events are dropped.
func newPublisher(ctx context.Context, cfg *config.Config, log *logging.Logger) (events.Publisher, func(), error) {
	if cfg.Events.RedisURL == "" {
		return events.Nop{}, func() {}, nil
	}

	client, err := events.NewClientFromURL(cfg.Events.RedisURL, cfg.Events.RunName)
	if err != nil {
		return nil, nil, printer.Error("invalid events configuration", err.Error(), nil)
	}
	if err := client.Ping(contextOr(ctx)); err != nil {
		client.Close()
		return nil, nil, printer.ErrorWithContext(
			"failed to connect to Redis",
			err.Error(),
			map[string]string{"URL": cfg.Events.RedisURL},
			[]string{"Check that Redis is running", "Remove events.redis_url to generate without progress events"},
		)
	}
	log.Info("publishing progress events", "run_name", cfg.Events.RunName)
	return client, func() { client.Close() }, nil
}

func printGenerateResult(cfg *config.Config, result *generator.Result) {
	printer.Success("%s\n", result.Summary())
	printer.Info("Seed: %d (run %s)\n", result.Seed, result.RunID)
	printer.Info("Output: %s\n", cfg.OutputDir())

	if counts := result.FailureCounts(); len(counts) > 0 {
		reasons := make([]string, 0, len(counts))
		for r := range counts {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)

		rows := make([][]string, 0, len(reasons))
		for _, r := range reasons {
			rows = append(rows, []string{r, strconv.Itoa(counts[engine.Reason(r)])})
		}
		printer.Warning("%d items failed\n", len(result.Failures))
		_ = printer.Table(printer.Out, []string{"REASON", "COUNT"}, rows)
	}

	dist := result.Stats.BackgroundDistribution
	if len(dist) == 0 {
		return
	}
	printer.Println("\nBackgrounds:")
	for _, colour := range generator.BackgroundShares(dist) {
		share := float64(dist[colour]) / float64(result.Stats.TotalItems) * 100
		printer.Printf("  %s  %d (%.1f%%)\n", printer.Swatch(colour), dist[colour], share)
	}
}

func contextOr(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
