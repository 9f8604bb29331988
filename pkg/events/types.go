package events

import (
	"fmt"
	"time"
)

// Type names a progress event.
type Type string

const (
	TypeRunStarted   Type = "run_started"
	TypeItemAccepted Type = "item_accepted"
	TypeItemFailed   Type = "item_failed"
	TypeRunCompleted Type = "run_completed"
)

// Validate checks the event type is one of the known values.
func (t Type) Validate() error {
	switch t {
	case TypeRunStarted, TypeItemAccepted, TypeItemFailed, TypeRunCompleted:
		return nil
	default:
		return fmt.Errorf("invalid event type: %q", t)
	}
}

// Event is one progress notification from a generation run.
type Event struct {
	Type        Type   `json:"type"`
	RunID       string `json:"run_id"`
	ItemID      int    `json:"item_id,omitempty"`
	Hash        string `json:"hash,omitempty"`
	Background  string `json:"background_color,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Total       int    `json:"total,omitempty"`
	Accepted    int    `json:"accepted,omitempty"`
	Failed      int    `json:"failed,omitempty"`
	Seed        int64  `json:"seed,omitempty"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// Validate checks the fields required for the event's type.
func (e *Event) Validate() error {
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if e.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	switch e.Type {
	case TypeItemAccepted:
		if e.ItemID <= 0 || e.Hash == "" {
			return fmt.Errorf("item_accepted requires item_id and hash")
		}
	case TypeItemFailed:
		if e.ItemID <= 0 || e.Reason == "" {
			return fmt.Errorf("item_failed requires item_id and reason")
		}
	}
	return nil
}

// Time returns the event timestamp.
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.TimestampMs)
}

// EventsChannel returns the Pub/Sub channel for a run.
// Pattern: traitforge:{run_name}:events
func EventsChannel(runName string) string {
	return fmt.Sprintf("traitforge:%s:events", runName)
}

// SummaryKey returns the Redis hash key holding the last completed run summary.
// Pattern: traitforge:{run_name}:summary
func SummaryKey(runName string) string {
	return fmt.Sprintf("traitforge:%s:summary", runName)
}
