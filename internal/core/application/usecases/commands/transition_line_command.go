package commands

import (
	"errors"
	"strings"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/guard"
)

var ErrTransitionLineCommandIsNotConstructed = errors.New(
	"TransitionLineCommand must be created via one of the New*Command constructors",
)

// TransitionLineCommand asks to move one line of an order. Use the
// per-action constructors:
//
//	cmd, err := NewSeparateLineCommand(orderID, lineID, worker)
//	cmd, err := NewMarkForPurchaseCommand(orderID, lineID, worker)
//	cmd, err := NewConfirmPurchaseCommand(orderID, lineID, purchaser)
//	cmd, err := NewSeparateAfterPurchaseCommand(orderID, lineID, worker)
//	cmd, err := NewSubstituteLineCommand(orderID, lineID, worker, "alt-sku-99")
type TransitionLineCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	lineID      kernel.UUID
	action      order.Action
	actor       kernel.Actor
	description string

	guard guard.ConstructorGuard
}

func NewSeparateLineCommand(orderID, lineID kernel.UUID, actor kernel.Actor) (TransitionLineCommand, error) {
	return newTransitionLineCommand(orderID, lineID, order.ActionSeparate, actor, "")
}

func NewMarkForPurchaseCommand(orderID, lineID kernel.UUID, actor kernel.Actor) (TransitionLineCommand, error) {
	return newTransitionLineCommand(orderID, lineID, order.ActionMarkForPurchase, actor, "")
}

func NewConfirmPurchaseCommand(orderID, lineID kernel.UUID, actor kernel.Actor) (TransitionLineCommand, error) {
	return newTransitionLineCommand(orderID, lineID, order.ActionConfirmPurchase, actor, "")
}

func NewSeparateAfterPurchaseCommand(orderID, lineID kernel.UUID, actor kernel.Actor) (TransitionLineCommand, error) {
	return newTransitionLineCommand(orderID, lineID, order.ActionSeparateAfterPurchase, actor, "")
}

// NewSubstituteLineCommand rejects a blank description with
// order.ErrEmptySubstituteDescription.
func NewSubstituteLineCommand(
	orderID, lineID kernel.UUID,
	actor kernel.Actor,
	description string,
) (TransitionLineCommand, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return TransitionLineCommand{}, order.ErrEmptySubstituteDescription
	}
	return newTransitionLineCommand(orderID, lineID, order.ActionSubstitute, actor, description)
}

func newTransitionLineCommand(
	orderID, lineID kernel.UUID,
	action order.Action,
	actor kernel.Actor,
	description string,
) (TransitionLineCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		lineID.Validate(),
		action.Validate(),
		actor.Validate(),
	); err != nil {
		return TransitionLineCommand{}, err
	}

	return TransitionLineCommand{
		orderID:     orderID,
		lineID:      lineID,
		action:      action,
		actor:       actor,
		description: description,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c TransitionLineCommand) Validate() error {
	return c.guard.Validate(ErrTransitionLineCommandIsNotConstructed)
}

func (c TransitionLineCommand) OrderID() kernel.UUID { return c.orderID }
func (c TransitionLineCommand) LineID() kernel.UUID { return c.lineID }
func (c TransitionLineCommand) Action() order.Action { return c.action }
func (c TransitionLineCommand) Actor() kernel.Actor { return c.actor }
func (c TransitionLineCommand) Description() string { return c.description }
