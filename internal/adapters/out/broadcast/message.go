package broadcast

import (
	"time"

	"separation/internal/core/domain/model/order"
)

// Message is the JSON form of an order.Event sent to observers and relays.
type Message struct {
	EventType string          `json:"event_type"`
	OrderID   string          `json:"order_id"`
	LineID    *string         `json:"line_id,omitempty"`
	NewState  *string         `json:"new_state,omitempty"`
	Progress  ProgressMessage `json:"progress"`
	Actor     string          `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
}

type ProgressMessage struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

func NewMessage(e order.Event) Message {
	m := Message{
		EventType: string(e.Type),
		OrderID:   e.OrderID.String(),
		Progress: ProgressMessage{
			Resolved: e.Progress.Resolved(),
			Total:    e.Progress.Total(),
		},
		Actor:     e.Actor,
		Timestamp: e.Timestamp.UTC(),
	}
	if e.LineID != nil {
		id := e.LineID.String()
		m.LineID = &id
	}
	if e.NewState != nil {
		state := e.NewState.String()
		m.NewState = &state
	}
	return m
}
