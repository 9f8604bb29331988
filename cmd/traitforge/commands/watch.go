package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/internal/watch"
	"github.com/dyluth/traitforge/pkg/events"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchUntilDone    bool
	watchSummary      bool
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the progress events of a generation run",
	Long: `Stream the progress events published by 'traitforge generate' through
Redis (events.redis_url). Start it before or during a run.

Output Formats:
  default - Human-readable lines with background swatches
  jsonl   - Line-delimited JSON, one event per line

Use --summary to print the last completed run summary instead, waiting up
to --timeout for one to appear.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	watchCmd.Flags().BoolVar(&watchUntilDone, "until-complete", false, "Exit after the run completes")
	watchCmd.Flags().BoolVar(&watchSummary, "summary", false, "Print the last completed run summary")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 30*time.Second, "How long --summary waits for a summary")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Events.RedisURL == "" {
		return printer.Error(
			"events are not configured",
			"Progress events require a Redis server.",
			[]string{"Set events.redis_url in traitforge.yml (or TRAITFORGE_EVENTS_REDIS_URL)"},
		)
	}

	formatter, err := watch.NewFormatter(watch.OutputFormat(watchOutputFormat), cmd.OutOrStdout())
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl"})
	}

	ctx, stop := signal.NotifyContext(contextOr(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := events.NewClientFromURL(cfg.Events.RedisURL, cfg.Events.RunName)
	if err != nil {
		return printer.Error("invalid events configuration", err.Error(), nil)
	}
	defer client.Close()

	if watchSummary {
		summary, err := watch.PollForSummary(ctx, client, watchTimeout)
		if err != nil {
			return printer.Error("no run summary", err.Error(), []string{"Run 'traitforge generate' with events enabled"})
		}
		return formatter.Format(summary)
	}

	return streamEvents(ctx, client, formatter)
}

func streamEvents(ctx context.Context, client *events.Client, formatter watch.Formatter) error {
	sub, err := client.Subscribe(ctx)
	if err != nil {
		return printer.Error("failed to subscribe to run events", err.Error(), []string{"Check that Redis is running"})
	}
	defer sub.Close()

	printer.Info("Watching events for run '%s' (Ctrl+C to stop)\n", client.RunName())
	return watch.Stream(ctx, sub, formatter, printer.ErrOut, watchUntilDone)
}
