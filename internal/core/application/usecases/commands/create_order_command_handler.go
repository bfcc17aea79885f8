package commands

import (
	"context"
	"errors"

	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"

	"go.opentelemetry.io/otel/attribute"
)

// ErrDuplicateExternalReference is returned when the external reference is
// already used by another order.
var ErrDuplicateExternalReference = ports.ErrDuplicateExternalReference

// CreateOrderCommandHandler stores a new order with all its lines in one
// transaction and announces it with an order_created event.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	cfg        handlerConfig
}

// NewCreateOrderCommandHandler creates a handler for order creation.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, opts ...Option) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		cfg:        newHandlerConfig("create_order_handler", opts),
	}
}

// Handle builds the aggregate and persists it. Nothing is written when the
// aggregate cannot be built.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (_ *order.Order, err error) {
	if err = cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, span := h.cfg.tracer.Start(ctx, "CreateOrder")
	span.SetAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.Int("order.lines", len(cmd.Spec().Lines)),
	)
	defer func() {
		h.cfg.recorder.OrderCreated(outcomeOf(err))
		endSpan(span, err)
	}()

	aggregate, err := order.NewOrder(cmd.OrderID(), cmd.Spec(), h.cfg.now())
	if err != nil {
		return nil, err
	}

	if err = h.persist(ctx, aggregate); err != nil {
		if errors.Is(err, ErrDuplicateExternalReference) {
			h.cfg.logger.InfoContext(ctx, "duplicate external reference",
				"external_reference", aggregate.ExternalReference())
		}
		return nil, err
	}

	h.cfg.logger.InfoContext(ctx, "order created",
		"order_id", aggregate.ID().String(),
		"external_reference", aggregate.ExternalReference(),
		"lines", len(aggregate.Lines()),
	)
	h.cfg.publish(context.WithoutCancel(ctx), order.NewOrderCreatedEvent(aggregate, cmd.Actor().String()))
	return aggregate, nil
}

func (h CreateOrderCommandHandler) persist(ctx context.Context, aggregate *order.Order) error {
	wctx, cancel := h.cfg.writeContext(ctx)
	defer cancel()

	uow := h.uowFactory.Create()
	if err := uow.Begin(wctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(wctx)
	}()

	if err := uow.OrderRepository().Add(wctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(wctx)
}
