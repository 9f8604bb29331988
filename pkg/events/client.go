package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher receives progress events. The generator depends on this interface so
// runs without Redis can use Nop.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, *Event) error { return nil }

// Client publishes and subscribes to the events of one named run.
// The client is safe for concurrent use.
type Client struct {
	rdb     *redis.Client
	runName string
}

// NewClient creates a client for runName. Returns an error if runName is empty.
func NewClient(redisOpts *redis.Options, runName string) (*Client, error) {
	if runName == "" {
		return nil, fmt.Errorf("run name cannot be empty")
	}

	return &Client{
		rdb:     redis.NewClient(redisOpts),
		runName: runName,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for runName.
func NewClientFromURL(url, runName string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewClient(opts, runName)
}

// RunName returns the run the client publishes and subscribes for.
func (c *Client) RunName() string {
	return c.runName
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Publish validates e and sends it to the run's events channel. A zero timestamp
// is filled with the current time. run_completed events are also stored as the
// run summary.
func (c *Client) Publish(ctx context.Context, e *Event) error {
	if e.TimestampMs == 0 {
		e.TimestampMs = time.Now().UnixMilli()
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if e.Type == TypeRunCompleted {
		if err := c.rdb.HSet(ctx, SummaryKey(c.runName), summaryFields(e)).Err(); err != nil {
			return fmt.Errorf("failed to write run summary to Redis: %w", err)
		}
	}

	if err := c.rdb.Publish(ctx, EventsChannel(c.runName), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// GetSummary returns the run_completed event of the last finished run.
// Returns (nil, redis.Nil) if no run has completed; use IsNotFound to check.
func (c *Client) GetSummary(ctx context.Context) (*Event, error) {
	fields, err := c.rdb.HGetAll(ctx, SummaryKey(c.runName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary from Redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, redis.Nil
	}
	return summaryFromFields(fields)
}

// Subscription is an active subscription to run events. Callers must Close it.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of decoded events. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns decoding errors. The subscription skips bad messages and continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe starts receiving events for the run. The subscription is confirmed
// with Redis before Subscribe returns, so events published afterwards are not lost.
// Context cancellation also stops the subscription.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, EventsChannel(c.runName))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to run events: %w", err)
	}

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound reports whether err is a Redis "key not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}

func summaryFields(e *Event) map[string]interface{} {
	return map[string]interface{}{
		"run_id":       e.RunID,
		"total":        e.Total,
		"accepted":     e.Accepted,
		"failed":       e.Failed,
		"seed":         e.Seed,
		"timestamp_ms": e.TimestampMs,
	}
}

func summaryFromFields(fields map[string]string) (*Event, error) {
	ev := &Event{Type: TypeRunCompleted, RunID: fields["run_id"]}

	ints := map[string]*int{
		"total":    &ev.Total,
		"accepted": &ev.Accepted,
		"failed":   &ev.Failed,
	}
	for name, dst := range ints {
		n, err := strconv.Atoi(fields[name])
		if err != nil {
			return nil, fmt.Errorf("invalid %s in run summary: %w", name, err)
		}
		*dst = n
	}

	var err error
	if ev.Seed, err = strconv.ParseInt(fields["seed"], 10, 64); err != nil {
		return nil, fmt.Errorf("invalid seed in run summary: %w", err)
	}
	if ev.TimestampMs, err = strconv.ParseInt(fields["timestamp_ms"], 10, 64); err != nil {
		return nil, fmt.Errorf("invalid timestamp in run summary: %w", err)
	}
	return ev, nil
}
