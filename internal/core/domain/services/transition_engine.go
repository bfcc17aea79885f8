package services

import (
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
)

// Transition is a requested line action with the actor and the moment it is
// applied at.
type Transition struct {
	Action      order.Action
	Actor       kernel.Actor
	At          time.Time
	Description string
}

// Outcome is an accepted transition. ExpectedState and ExpectedVersion are the
// line's values before the move; the conditional write must match them.
type Outcome struct {
	Line            *order.LineItem
	ExpectedState   order.LineState
	ExpectedVersion int64
}

// TransitionEngine applies line actions to an in-memory order. It performs no
// I/O; concurrency is resolved later by the compare-and-set on
// (ExpectedState, ExpectedVersion).
//
// Example usage:
//
//	engine := services.NewTransitionEngine()
//	outcome, err := engine.Apply(o, lineID, services.Transition{
//	    Action: order.ActionSeparate,
//	    Actor:  worker,
//	    At:     time.Now(),
//	})
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // someone else already handled the line
//	}
type TransitionEngine struct{}

// NewTransitionEngine creates a TransitionEngine.
func NewTransitionEngine() TransitionEngine {
	return TransitionEngine{}
}

// Apply runs tr against the line lineID of o.
//
// Returns:
//   - order.ErrAlreadyFinalized when o is finalized
//   - errs.ErrObjectNotFound when the line does not belong to o
//   - *order.InvalidTransitionError when the line state does not allow the action
//   - order.ErrEmptySubstituteDescription for a blank substitution
//
// On error the line is left untouched.
func (TransitionEngine) Apply(o *order.Order, lineID kernel.UUID, tr Transition) (Outcome, error) {
	if err := o.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := tr.Action.Validate(); err != nil {
		return Outcome{}, err
	}
	if o.IsFinalized() {
		return Outcome{}, order.ErrAlreadyFinalized
	}

	line, err := o.Line(lineID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Line:            line,
		ExpectedState:   line.State(),
		ExpectedVersion: line.Version(),
	}

	switch tr.Action {
	case order.ActionSeparate:
		err = line.Separate(tr.Actor, tr.At)
	case order.ActionMarkForPurchase:
		err = line.MarkForPurchase(tr.Actor, tr.At)
	case order.ActionConfirmPurchase:
		err = line.ConfirmPurchase(tr.Actor, tr.At)
	case order.ActionSeparateAfterPurchase:
		err = line.SeparateAfterPurchase(tr.Actor, tr.At)
	case order.ActionSubstitute:
		err = line.Substitute(tr.Description, tr.Actor, tr.At)
	}
	if err != nil {
		return Outcome{}, err
	}

	return outcome, nil
}
