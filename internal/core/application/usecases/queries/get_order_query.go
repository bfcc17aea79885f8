package queries

import (
	"errors"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order with all its lines.
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

// GetOrderQueryResponse is the detail view of an order. Elapsed is zero while
// the order is in progress.
type GetOrderQueryResponse struct {
	ID                kernel.UUID
	ExternalReference string
	Client            string
	Salesperson       string
	Notes             string
	Logistics         order.LogisticsMode
	Packaging         order.PackagingMode
	Status            order.Status
	StartedAt         time.Time
	FinalizedAt       *time.Time
	FinalizedBy       string
	Elapsed           time.Duration
	Progress          order.Progress
	Lines             []OrderLineView
}

// OrderLineView is one line of the detail view. HandledBy names the actor of
// the latest accepted transition.
type OrderLineView struct {
	ID                    kernel.UUID
	Position              int
	ProductCode           string
	Description           string
	Quantity              int
	UnitPrice             decimal.Decimal
	LineTotal             decimal.Decimal
	State                 order.LineState
	HandledBy             string
	SeparatedBy           string
	SeparatedAt           *time.Time
	SentToPurchaseBy      string
	SentToPurchaseAt      *time.Time
	PurchaseConfirmedBy   string
	PurchaseConfirmedAt   *time.Time
	SubstituteDescription string
	Version               int64
}
