package queries

import (
	"errors"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/guard"
)

var ErrGetPurchaseQueueQueryIsNotConstructed = errors.New(
	"GetPurchaseQueueQuery must be created via NewGetPurchaseQueueQuery constructor",
)

// GetPurchaseQueueQuery reads the lines purchasing is working on: awaiting a
// purchase or purchased and not yet picked, on orders still in progress.
type GetPurchaseQueueQuery struct {
	guard guard.ConstructorGuard
}

func NewGetPurchaseQueueQuery() GetPurchaseQueueQuery {
	return GetPurchaseQueueQuery{guard: guard.NewConstructorGuard()}
}

func (q GetPurchaseQueueQuery) Validate() error {
	return q.guard.Validate(ErrGetPurchaseQueueQueryIsNotConstructed)
}

// GetPurchaseQueueQueryResponse is one queued line. ConfirmedBy and
// ConfirmedAt are set once the purchase is confirmed.
type GetPurchaseQueueQueryResponse struct {
	LineID            kernel.UUID
	OrderID           kernel.UUID
	ExternalReference string
	Client            string
	ProductCode       string
	Description       string
	Quantity          int
	State             order.LineState
	RequestedBy       string
	RequestedAt       time.Time
	ConfirmedBy       string
	ConfirmedAt       *time.Time
}
