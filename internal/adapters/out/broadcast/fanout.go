package broadcast

import (
	"context"
	"log/slog"

	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"
)

// FanoutPublisher sends every event to the hub and then to each relay.
// Relay failures are logged and never returned.
type FanoutPublisher struct {
	hub    ports.EventPublisher
	relays []ports.EventPublisher
	logger *slog.Logger
}

var _ ports.EventPublisher = (*FanoutPublisher)(nil)

func NewFanoutPublisher(hub ports.EventPublisher, logger *slog.Logger, relays ...ports.EventPublisher) *FanoutPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FanoutPublisher{
		hub:    hub,
		relays: relays,
		logger: logger.With("component", "fanout_publisher"),
	}
}

func (p *FanoutPublisher) Publish(ctx context.Context, event order.Event) error {
	err := p.hub.Publish(ctx, event)
	for _, relay := range p.relays {
		if relayErr := relay.Publish(ctx, event); relayErr != nil {
			p.logger.WarnContext(ctx, "relay publish failed",
				"event_type", string(event.Type),
				"order_id", event.OrderID.String(),
				"error", relayErr,
			)
		}
	}
	return err
}
