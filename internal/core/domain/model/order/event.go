package order

import (
	"time"

	"separation/internal/core/domain/model/kernel"
)

// EventType names what happened to an order.
type EventType string

const (
	EventOrderCreated     EventType = "order_created"
	EventLineTransitioned EventType = "line_transitioned"
	EventOrderFinalized   EventType = "order_finalized"
	EventOrderUpdated     EventType = "order_updated"
)

// Event is the change notification published after a committed mutation.
// Observers treat it as an invalidation signal and re-read the order.
type Event struct {
	Type      EventType
	OrderID   kernel.UUID
	LineID    *kernel.UUID
	NewState  *LineState
	Progress  Progress
	Actor     string
	Timestamp time.Time
}

// NewOrderCreatedEvent describes a freshly stored order.
func NewOrderCreatedEvent(o *Order, actor string) Event {
	return Event{
		Type:      EventOrderCreated,
		OrderID:   o.ID(),
		Progress:  o.Progress(),
		Actor:     actor,
		Timestamp: o.StartedAt(),
	}
}

// NewLineTransitionedEvent describes an accepted line transition. progress is
// the value read back after the commit.
func NewLineTransitionedEvent(line *LineItem, progress Progress, actor kernel.Actor, at time.Time) Event {
	id := line.ID()
	state := line.State()
	return Event{
		Type:      EventLineTransitioned,
		OrderID:   line.OrderID(),
		LineID:    &id,
		NewState:  &state,
		Progress:  progress,
		Actor:     actor.String(),
		Timestamp: at.UTC(),
	}
}

// NewOrderUpdatedEvent describes a committed change to the order header, such
// as its logistics or packaging.
func NewOrderUpdatedEvent(o *Order, actor kernel.Actor, at time.Time) Event {
	return Event{
		Type:      EventOrderUpdated,
		OrderID:   o.ID(),
		Progress:  o.Progress(),
		Actor:     actor.String(),
		Timestamp: at.UTC(),
	}
}

// NewOrderFinalizedEvent describes a finalized order.
func NewOrderFinalizedEvent(o *Order) Event {
	e := Event{
		Type:     EventOrderFinalized,
		OrderID:  o.ID(),
		Progress: o.Progress(),
	}
	if by := o.FinalizedBy(); by != nil {
		e.Actor = by.String()
	}
	if at := o.FinalizedAt(); at != nil {
		e.Timestamp = *at
	}
	return e
}
