package commands

import (
	"context"
	"time"

	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"

	"go.opentelemetry.io/otel/attribute"
)

// FinalizeResult is a finalized order and how long its separation took.
type FinalizeResult struct {
	Order   *order.Order
	Elapsed time.Duration
}

// FinalizeOrderCommandHandler closes an order once every line is resolved.
// The write only succeeds while the stored order is still in progress and has
// no unresolved line, so of concurrent callers exactly one succeeds.
type FinalizeOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	cfg        handlerConfig
}

// NewFinalizeOrderCommandHandler creates a handler for order finalization.
func NewFinalizeOrderCommandHandler(uowFactory OrderUoWFactory, opts ...Option) FinalizeOrderCommandHandler {
	return FinalizeOrderCommandHandler{
		uowFactory: uowFactory,
		cfg:        newHandlerConfig("finalize_order_handler", opts),
	}
}

// Handle returns order.ErrAlreadyFinalized or an *order.IncompleteOrderError
// when the order cannot be closed; the store is not changed in that case.
func (h FinalizeOrderCommandHandler) Handle(ctx context.Context, cmd FinalizeOrderCommand) (_ FinalizeResult, err error) {
	if err = cmd.Validate(); err != nil {
		return FinalizeResult{}, err
	}

	ctx, span := h.cfg.tracer.Start(ctx, "FinalizeOrder")
	span.SetAttributes(attribute.String("order.id", cmd.OrderID().String()))
	var elapsed time.Duration
	defer func() {
		h.cfg.recorder.OrderFinalized(outcomeOf(err), elapsed)
		endSpan(span, err)
	}()

	rctx, cancelRead := h.cfg.readContext(ctx)
	aggregate, err := h.uowFactory.Create().OrderRepository().Get(rctx, cmd.OrderID())
	cancelRead()
	if err != nil {
		return FinalizeResult{}, err
	}

	elapsed, err = aggregate.Finalize(cmd.Actor(), h.cfg.now())
	if err != nil {
		return FinalizeResult{}, err
	}

	wctx, cancel := h.cfg.writeContext(ctx)
	defer cancel()

	if err = h.write(wctx, aggregate); err != nil {
		elapsed = 0
		return FinalizeResult{}, err
	}

	h.cfg.logger.InfoContext(ctx, "order finalized",
		"order_id", aggregate.ID().String(),
		"actor", cmd.Actor().String(),
		"elapsed", elapsed.String(),
	)
	h.cfg.publish(wctx, order.NewOrderFinalizedEvent(aggregate))

	return FinalizeResult{Order: aggregate, Elapsed: elapsed}, nil
}

func (h FinalizeOrderCommandHandler) write(ctx context.Context, aggregate *order.Order) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	applied, err := repo.Finalize(ctx, aggregate)
	if err != nil {
		return err
	}
	if !applied {
		return explainRejectedFinalize(ctx, repo, aggregate)
	}

	return uow.Commit(ctx)
}

// explainRejectedFinalize re-reads the order after a refused conditional write.
func explainRejectedFinalize(ctx context.Context, repo ports.OrderRepository, aggregate *order.Order) error {
	current, err := repo.Get(ctx, aggregate.ID())
	if err != nil {
		return err
	}
	if current.IsFinalized() {
		return order.ErrAlreadyFinalized
	}
	return &order.IncompleteOrderError{OrderID: current.ID(), Progress: current.Progress()}
}
