package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/pkg/events"
)

// OutputFormat selects how streamed events are rendered.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSONL   OutputFormat = "jsonl"
)

// Formatter renders one event.
type Formatter interface {
	Format(e *events.Event) error
}

// NewFormatter returns the formatter for the given output format.
func NewFormatter(format OutputFormat, w io.Writer) (Formatter, error) {
	switch format {
	case OutputFormatDefault, "":
		return &defaultFormatter{writer: w}, nil
	case OutputFormatJSONL:
		return &jsonFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected default or jsonl)", format)
	}
}

type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) Format(e *events.Event) error {
	ts := e.Time().Format("15:04:05")

	var line string
	switch e.Type {
	case events.TypeRunStarted:
		line = fmt.Sprintf("🚀 Run started: run=%s, items=%d, seed=%d", e.RunID, e.Total, e.Seed)
	case events.TypeItemAccepted:
		line = fmt.Sprintf("✨ Item #%d accepted: hash=%s, background=%s", e.ItemID, shortHash(e.Hash), printer.Swatch(e.Background))
	case events.TypeItemFailed:
		line = fmt.Sprintf("❌ Item #%d failed: %s", e.ItemID, e.Reason)
	case events.TypeRunCompleted:
		line = fmt.Sprintf("🎉 Run completed: %d/%d accepted, %d failed", e.Accepted, e.Total, e.Failed)
	default:
		line = fmt.Sprintf("Unknown event: %s", e.Type)
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	return err
}

type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) Format(e *events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

// Stream renders events from sub until the context ends or the subscription
// closes. With untilComplete set it returns after the first run_completed
// event. Undecodable messages are reported to errW and skipped.
func Stream(ctx context.Context, sub *events.Subscription, f Formatter, errW io.Writer, untilComplete bool) error {
	evs := sub.Events()
	errs := sub.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(errW, "warning: %v\n", err)

		case e, ok := <-evs:
			if !ok {
				return nil
			}
			if err := f.Format(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
			if untilComplete && e.Type == events.TypeRunCompleted {
				drainErrors(errs, errW)
				return nil
			}
		}
	}
}

// SummaryReader reads the last completed run summary.
type SummaryReader interface {
	GetSummary(ctx context.Context) (*events.Event, error)
}

// PollForSummary polls for a completed run summary.
// Polls every 200ms for the specified timeout duration.
func PollForSummary(ctx context.Context, client SummaryReader, timeout time.Duration) (*events.Event, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for run summary after %v", timeout)

		case <-ticker.C:
			summary, err := client.GetSummary(ctx)
			if err != nil {
				if events.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query run summary: %w", err)
			}

			return summary, nil
		}
	}
}

func drainErrors(errs <-chan error, errW io.Writer) {
	for errs != nil {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			fmt.Fprintf(errW, "warning: %v\n", err)
		default:
			return
		}
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
