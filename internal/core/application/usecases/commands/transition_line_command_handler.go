package commands

import (
	"context"

	"separation/internal/core/domain/model/order"
	"separation/internal/core/domain/services"
	"separation/internal/core/ports"

	"go.opentelemetry.io/otel/attribute"
)

// LineResult is the state of a line after an accepted transition, with the
// order progress read back from the store.
type LineResult struct {
	Line     *order.LineItem
	Progress order.Progress
}

// TransitionLineCommandHandler applies one line action.
//
// The order is read and the action decided in memory. The write is a
// compare-and-set on the line's prior (state, version): when another actor
// moved the line in between, nothing is written and the caller receives an
// *order.InvalidTransitionError naming that actor.
//
// Example:
//
//	res, err := handler.Handle(ctx, cmd)
//	var lost *order.InvalidTransitionError
//	if errors.As(err, &lost) {
//	    // "already handled by " + lost.HandledBy
//	}
type TransitionLineCommandHandler struct {
	uowFactory OrderUoWFactory
	engine     services.TransitionEngine
	cfg        handlerConfig
}

// NewTransitionLineCommandHandler creates a handler for line transitions.
func NewTransitionLineCommandHandler(uowFactory OrderUoWFactory, opts ...Option) TransitionLineCommandHandler {
	return TransitionLineCommandHandler{
		uowFactory: uowFactory,
		engine:     services.NewTransitionEngine(),
		cfg:        newHandlerConfig("transition_line_handler", opts),
	}
}

// Handle runs the command. Domain rejections and lost races leave the store
// untouched. Storage faults come back as errs.StorageUnavailableError and the
// whole command may be retried.
func (h TransitionLineCommandHandler) Handle(ctx context.Context, cmd TransitionLineCommand) (_ LineResult, err error) {
	if err = cmd.Validate(); err != nil {
		return LineResult{}, err
	}

	ctx, span := h.cfg.tracer.Start(ctx, "TransitionLine")
	span.SetAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.String("line.id", cmd.LineID().String()),
		attribute.String("line.action", cmd.Action().String()),
	)
	defer func() {
		h.cfg.recorder.LineTransitioned(cmd.Action(), outcomeOf(err))
		endSpan(span, err)
	}()

	aggregate, err := h.load(ctx, cmd)
	if err != nil {
		return LineResult{}, err
	}

	now := h.cfg.now()
	outcome, err := h.engine.Apply(aggregate, cmd.LineID(), services.Transition{
		Action:      cmd.Action(),
		Actor:       cmd.Actor(),
		At:          now,
		Description: cmd.Description(),
	})
	if err != nil {
		return LineResult{}, err
	}

	// From here on the request can no longer cancel the operation.
	wctx, cancel := h.cfg.writeContext(ctx)
	defer cancel()

	if err = h.write(wctx, cmd, outcome); err != nil {
		return LineResult{}, err
	}

	progress, progressErr := h.uowFactory.Create().OrderRepository().Progress(wctx, cmd.OrderID())
	if progressErr != nil {
		h.cfg.logger.WarnContext(ctx, "failed to read progress after commit",
			"order_id", cmd.OrderID().String(), "error", progressErr)
		progress = aggregate.Progress()
	}

	h.cfg.logger.InfoContext(ctx, "line transitioned",
		"order_id", cmd.OrderID().String(),
		"line_id", cmd.LineID().String(),
		"action", cmd.Action().String(),
		"state", outcome.Line.State().String(),
		"actor", cmd.Actor().String(),
		"progress", progress.String(),
	)
	h.cfg.publish(wctx, order.NewLineTransitionedEvent(outcome.Line, progress, cmd.Actor(), now))

	return LineResult{Line: outcome.Line, Progress: progress}, nil
}

func (h TransitionLineCommandHandler) load(ctx context.Context, cmd TransitionLineCommand) (*order.Order, error) {
	rctx, cancel := h.cfg.readContext(ctx)
	defer cancel()

	return h.uowFactory.Create().OrderRepository().Get(rctx, cmd.OrderID())
}

func (h TransitionLineCommandHandler) write(ctx context.Context, cmd TransitionLineCommand, outcome services.Outcome) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	applied, err := repo.UpdateLine(ctx, outcome.Line, outcome.ExpectedState, outcome.ExpectedVersion)
	if err != nil {
		return err
	}
	if !applied {
		return h.explainLostRace(ctx, repo, cmd, outcome)
	}

	return uow.Commit(ctx)
}

// explainLostRace re-reads the line to tell the caller who got there first.
// A line still at the expected version means the order itself was finalized.
func (h TransitionLineCommandHandler) explainLostRace(
	ctx context.Context,
	repo ports.OrderRepository,
	cmd TransitionLineCommand,
	outcome services.Outcome,
) error {
	current, err := repo.GetLine(ctx, cmd.OrderID(), cmd.LineID())
	if err != nil {
		return err
	}
	if current.State() == outcome.ExpectedState && current.Version() == outcome.ExpectedVersion {
		return order.ErrAlreadyFinalized
	}

	lost := &order.InvalidTransitionError{
		LineID:    current.ID(),
		State:     current.State(),
		Action:    cmd.Action(),
		HandledBy: current.HandledBy(),
	}
	h.cfg.logger.InfoContext(ctx, "line transition lost race",
		"order_id", cmd.OrderID().String(),
		"line_id", cmd.LineID().String(),
		"action", cmd.Action().String(),
		"actor", cmd.Actor().String(),
		"handled_by", lost.HandledBy,
	)
	return lost
}
