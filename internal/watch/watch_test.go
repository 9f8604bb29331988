package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/traitforge/pkg/events"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*events.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client, err := events.NewClient(&redis.Options{Addr: mr.Addr()}, "koby")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestFormatters(t *testing.T) {
	color.NoColor = true
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local).UnixMilli()

	tests := []struct {
		name     string
		event    *events.Event
		expected string
	}{
		{
			name:     "run started",
			event:    &events.Event{Type: events.TypeRunStarted, RunID: "r1", Total: 10, Seed: 42, TimestampMs: ts},
			expected: "[03:04:05] 🚀 Run started: run=r1, items=10, seed=42\n",
		},
		{
			name:     "item accepted",
			event:    &events.Event{Type: events.TypeItemAccepted, RunID: "r1", ItemID: 3, Hash: "0123456789abcdef", Background: "2eebb1", TimestampMs: ts},
			expected: "[03:04:05] ✨ Item #3 accepted: hash=0123456789ab, background=#2eebb1\n",
		},
		{
			name:     "item failed",
			event:    &events.Event{Type: events.TypeItemFailed, RunID: "r1", ItemID: 4, Reason: "uniqueness_exhausted", TimestampMs: ts},
			expected: "[03:04:05] ❌ Item #4 failed: uniqueness_exhausted\n",
		},
		{
			name:     "run completed",
			event:    &events.Event{Type: events.TypeRunCompleted, RunID: "r1", Total: 10, Accepted: 9, Failed: 1, TimestampMs: ts},
			expected: "[03:04:05] 🎉 Run completed: 9/10 accepted, 1 failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f, err := NewFormatter(OutputFormatDefault, &buf)
			require.NoError(t, err)
			require.NoError(t, f.Format(tt.event))
			assert.Equal(t, tt.expected, buf.String())
		})
	}

	t.Run("jsonl", func(t *testing.T) {
		var buf bytes.Buffer
		f, err := NewFormatter(OutputFormatJSONL, &buf)
		require.NoError(t, err)
		require.NoError(t, f.Format(tests[1].event))

		var decoded events.Event
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, *tests[1].event, decoded)
		assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := NewFormatter("xml", &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestStream_UntilComplete(t *testing.T) {
	client, mr := setupClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	go func() {
		_ = client.Publish(ctx, &events.Event{Type: events.TypeRunStarted, RunID: "r1", Total: 1})
		mr.Publish(events.EventsChannel("koby"), "not json")
		_ = client.Publish(ctx, &events.Event{Type: events.TypeItemAccepted, RunID: "r1", ItemID: 1, Hash: "abc"})
		_ = client.Publish(ctx, &events.Event{Type: events.TypeRunCompleted, RunID: "r1", Total: 1, Accepted: 1})
	}()

	var out, errOut bytes.Buffer
	f, err := NewFormatter(OutputFormatJSONL, &out)
	require.NoError(t, err)
	require.NoError(t, Stream(ctx, sub, f, &errOut, true))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"type":"run_started"`)
	assert.Contains(t, lines[2], `"type":"run_completed"`)
	assert.Contains(t, errOut.String(), "failed to unmarshal event")
}

func TestStream_ContextCancel(t *testing.T) {
	client, _ := setupClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan error, 1)
	go func() {
		done <- Stream(ctx, sub, &jsonFormatter{writer: &bytes.Buffer{}}, &bytes.Buffer{}, false)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

type fakeSummary struct {
	calls int
	ready int
	err   error
}

func (f *fakeSummary) GetSummary(context.Context) (*events.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls < f.ready {
		return nil, redis.Nil
	}
	return &events.Event{Type: events.TypeRunCompleted, Accepted: 5}, nil
}

func TestPollForSummary(t *testing.T) {
	t.Run("waits until summary exists", func(t *testing.T) {
		fake := &fakeSummary{ready: 2}
		summary, err := PollForSummary(context.Background(), fake, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 5, summary.Accepted)
		assert.Equal(t, 2, fake.calls)
	})

	t.Run("times out", func(t *testing.T) {
		fake := &fakeSummary{ready: 1000}
		_, err := PollForSummary(context.Background(), fake, 300*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout waiting for run summary")
	})

	t.Run("propagates query errors", func(t *testing.T) {
		fake := &fakeSummary{err: errors.New("boom")}
		_, err := PollForSummary(context.Background(), fake, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("reads real summary", func(t *testing.T) {
		client, _ := setupClient(t)
		ctx := context.Background()
		require.NoError(t, client.Publish(ctx, &events.Event{Type: events.TypeRunCompleted, RunID: "r9", Total: 3, Accepted: 3}))

		summary, err := PollForSummary(ctx, client, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "r9", summary.RunID)
		assert.Equal(t, 3, summary.Accepted)
	})
}
