package commands

import (
	"context"

	"separation/internal/core/domain/model/order"

	"go.opentelemetry.io/otel/attribute"
)

// ChangeShippingCommandHandler updates logistics and packaging of an
// in-progress order, enforcing the box rule. Observers get an order_updated
// event after the commit so dashboards re-read the header.
type ChangeShippingCommandHandler struct {
	uowFactory OrderUoWFactory
	cfg        handlerConfig
}

func NewChangeShippingCommandHandler(uowFactory OrderUoWFactory, opts ...Option) ChangeShippingCommandHandler {
	return ChangeShippingCommandHandler{
		uowFactory: uowFactory,
		cfg:        newHandlerConfig("change_shipping_handler", opts),
	}
}

func (h ChangeShippingCommandHandler) Handle(ctx context.Context, cmd ChangeShippingCommand) (_ *order.Order, err error) {
	if err = cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, span := h.cfg.tracer.Start(ctx, "ChangeShipping")
	span.SetAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.String("order.logistics", cmd.Logistics().String()),
		attribute.String("order.packaging", cmd.Packaging().String()),
	)
	defer func() {
		h.cfg.recorder.ShippingChanged(outcomeOf(err))
		endSpan(span, err)
	}()

	wctx, cancel := h.cfg.writeContext(ctx)
	defer cancel()

	aggregate, err := h.write(wctx, cmd)
	if err != nil {
		return nil, err
	}

	h.cfg.logger.InfoContext(ctx, "shipping changed",
		"order_id", aggregate.ID().String(),
		"logistics", aggregate.Logistics().String(),
		"packaging", aggregate.Packaging().String(),
		"actor", cmd.Actor().String(),
	)
	h.cfg.publish(wctx, order.NewOrderUpdatedEvent(aggregate, cmd.Actor(), h.cfg.now()))

	return aggregate, nil
}

func (h ChangeShippingCommandHandler) write(ctx context.Context, cmd ChangeShippingCommand) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	aggregate, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	if err = aggregate.ChangeShipping(cmd.Logistics(), cmd.Packaging()); err != nil {
		return nil, err
	}
	if err = repo.UpdateShipping(ctx, aggregate); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return aggregate, nil
}
