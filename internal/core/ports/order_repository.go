// Package ports defines the contracts between the separation use cases and
// the infrastructure that stores orders and publishes their changes.
package ports

import (
	"context"
	"errors"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
)

// ErrDuplicateExternalReference is returned by Add when another order already
// uses the same external reference.
var ErrDuplicateExternalReference = errors.New("external reference already exists")

// OrderRepository defines the persistence contract for order aggregates.
//
// Implementations wrap connectivity, timeout and driver faults in
// errs.StorageUnavailableError and report unknown ids with
// errs.ObjectNotFoundError.
type OrderRepository interface {
	// Add stores a new order together with all its lines.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get loads an order with its lines in position order.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetLine loads a single line of an order.
	GetLine(ctx context.Context, orderID, lineID kernel.UUID) (*order.LineItem, error)

	// UpdateLine writes line only if the stored row still has expectedState and
	// expectedVersion, and the parent order is still in progress. It reports
	// false, without error, when the precondition no longer holds.
	UpdateLine(ctx context.Context, line *order.LineItem, expectedState order.LineState, expectedVersion int64) (bool, error)

	// Finalize writes the finalization stamp of aggregate only if the stored
	// order is still in progress and has no unresolved line. It reports false,
	// without error, when that condition no longer holds.
	Finalize(ctx context.Context, aggregate *order.Order) (bool, error)

	// UpdateShipping persists the logistics and packaging modes of an in-progress order.
	UpdateShipping(ctx context.Context, aggregate *order.Order) error

	// Progress counts resolved and total lines of an order as stored.
	Progress(ctx context.Context, id kernel.UUID) (order.Progress, error)
}
