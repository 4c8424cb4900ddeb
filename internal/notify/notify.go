// Package notify fans out change notifications to subscribed views.
//
// Delivery is at most once. There is no ordering across subscribers and no
// replay: a subscriber only sees events published after it subscribed, and
// a subscriber whose buffer is full misses events rather than blocking the
// publisher.
package notify

import (
	"context"
	"time"
)

const (
	// DefaultTopic is the channel name views subscribe to.
	DefaultTopic = "tracker_updates"
	// SummaryUpdated tells subscribers to refetch the summary.
	SummaryUpdated = "summary-updated"
)

// Mutation reasons carried on an event.
const (
	ReasonCreate = "create"
	ReasonUpdate = "update"
	ReasonDelete = "delete"
	ReasonClear  = "clear"
)

// Event is a payload-free change signal.
type Event struct {
	Type       string    `json:"type"`
	Reason     string    `json:"reason,omitempty"`
	EntryID    int64     `json:"entryId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewSummaryUpdated builds the event for a completed mutation.
func NewSummaryUpdated(reason string, entryID int64) Event {
	return Event{
		Type:       SummaryUpdated,
		Reason:     reason,
		EntryID:    entryID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber hands out event channels. The channel closes when ctx ends or
// the bus shuts down.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}
