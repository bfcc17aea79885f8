package http

import (
	"context"
	"log/slog"

	"separation/internal/adapters/out/broadcast"
	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/application/usecases/queries"
	"separation/internal/core/domain/model/order"
)

type OrderCreator interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
}

type LineTransitioner interface {
	Handle(ctx context.Context, cmd commands.TransitionLineCommand) (commands.LineResult, error)
}

type OrderFinalizer interface {
	Handle(ctx context.Context, cmd commands.FinalizeOrderCommand) (commands.FinalizeResult, error)
}

type ShippingChanger interface {
	Handle(ctx context.Context, cmd commands.ChangeShippingCommand) (*order.Order, error)
}

type OrderReader interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
}

type ActiveOrdersReader interface {
	Handle(
		ctx context.Context,
		query queries.GetInProgressOrdersQuery,
	) ([]queries.GetInProgressOrdersQueryResponse, error)
}

type PurchaseQueueReader interface {
	Handle(
		ctx context.Context,
		query queries.GetPurchaseQueueQuery,
	) ([]queries.GetPurchaseQueueQueryResponse, error)
}

// Subscriber opens observer subscriptions. *broadcast.Hub satisfies it.
type Subscriber interface {
	Subscribe(topic string) (*broadcast.Subscription, error)
}

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	CreateOrder      OrderCreator
	TransitionLine   LineTransitioner
	FinalizeOrder    OrderFinalizer
	ChangeShipping   ShippingChanger
	GetOrder         OrderReader
	GetActiveOrders  ActiveOrdersReader
	GetPurchaseQueue PurchaseQueueReader
}

// Server implements ServerInterface on top of the application use cases.
type Server struct {
	handlers Handlers
	hub      Subscriber
	logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

func NewServer(handlers Handlers, hub Subscriber, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handlers: handlers,
		hub:      hub,
		logger:   logger.With("component", "http_server"),
	}
}
