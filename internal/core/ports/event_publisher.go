package ports

import (
	"context"

	"separation/internal/core/domain/model/order"
)

// EventPublisher delivers committed order changes to observers. Publish must
// not block on slow consumers; a returned error is only ever logged.
type EventPublisher interface {
	Publish(ctx context.Context, event order.Event) error
}
