package ports

import (
	"context"
)

// UnitOfWork scopes order writes to one database transaction.
//
// A unit runs Begin, then Commit or Rollback, and may be begun again. Creating an order
// writes the order row and every line row inside the same unit, so either all
// of them exist afterwards or none does. Line transitions and finalization
// also run inside a unit so the compare-and-set and the progress re-read see
// the same snapshot.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit makes the writes of the current transaction visible.
	Commit(ctx context.Context) error

	// Rollback discards the current transaction. After Commit it reports
	// that no transaction is active; deferred calls ignore that.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current
	// transaction, or to the plain connection when none is active.
	OrderRepository() OrderRepository
}

// UnitOfWorkFactory hands out fresh units, one per operation.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
