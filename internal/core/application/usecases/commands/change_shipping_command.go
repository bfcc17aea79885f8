package commands

import (
	"errors"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/guard"
)

var ErrChangeShippingCommandIsNotConstructed = errors.New(
	"ChangeShippingCommand must be created via NewChangeShippingCommand constructor",
)

// ChangeShippingCommand replaces the logistics and packaging modes of an
// order still being separated.
type ChangeShippingCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	logistics order.LogisticsMode
	packaging order.PackagingMode
	actor     kernel.Actor

	guard guard.ConstructorGuard
}

func NewChangeShippingCommand(
	orderID kernel.UUID,
	logistics order.LogisticsMode,
	packaging order.PackagingMode,
	actor kernel.Actor,
) (ChangeShippingCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return ChangeShippingCommand{}, err
	}
	if err := order.ValidateShipping(logistics, packaging); err != nil {
		return ChangeShippingCommand{}, err
	}
	return ChangeShippingCommand{
		orderID:   orderID,
		logistics: logistics,
		packaging: packaging,
		actor:     actor,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ChangeShippingCommand) Validate() error {
	return c.guard.Validate(ErrChangeShippingCommandIsNotConstructed)
}

func (c ChangeShippingCommand) OrderID() kernel.UUID { return c.orderID }
func (c ChangeShippingCommand) Logistics() order.LogisticsMode { return c.logistics }
func (c ChangeShippingCommand) Packaging() order.PackagingMode { return c.packaging }
func (c ChangeShippingCommand) Actor() kernel.Actor { return c.actor }
