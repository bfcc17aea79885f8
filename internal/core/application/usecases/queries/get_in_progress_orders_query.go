package queries

import (
	"errors"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/guard"
)

var ErrGetInProgressOrdersQueryIsNotConstructed = errors.New(
	"GetInProgressOrdersQuery must be created via NewGetInProgressOrdersQuery constructor",
)

// GetInProgressOrdersQuery reads the fleet dashboard: every order still being
// separated, oldest first.
type GetInProgressOrdersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetInProgressOrdersQuery() GetInProgressOrdersQuery {
	return GetInProgressOrdersQuery{guard: guard.NewConstructorGuard()}
}

func (q GetInProgressOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetInProgressOrdersQueryIsNotConstructed)
}

// GetInProgressOrdersQueryResponse is one dashboard row.
type GetInProgressOrdersQueryResponse struct {
	ID                kernel.UUID
	ExternalReference string
	Client            string
	Logistics         order.LogisticsMode
	Packaging         order.PackagingMode
	Progress          order.Progress
	StartedAt         time.Time
}
