package commands

import (
	"errors"
	"strings"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/errs"
	"separation/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand is a validated creation request coming from the
// ingestion step. Line totals are trusted as computed upstream.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), order.Spec{
//	    ExternalReference: "PED-2024-0042",
//	    Client:            "Mercado Central",
//	    Salesperson:       "rep-07",
//	    Logistics:         order.CarrierPost,
//	    Packaging:         order.Bag,
//	    Lines:             lines,
//	}, actor)
//	// err wraps order.ErrPackagingLogisticsMismatch
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	spec    order.Spec
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand checks the packaging/logistics rule first, then the
// remaining mandatory fields.
func NewCreateOrderCommand(orderID kernel.UUID, spec order.Spec, actor kernel.Actor) (CreateOrderCommand, error) {
	if err := order.ValidateShipping(spec.Logistics, spec.Packaging); err != nil {
		return CreateOrderCommand{}, err
	}

	cmd := CreateOrderCommand{guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setSpec(spec),
		cmd.setActor(actor),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID { return c.orderID }

// Spec returns a copy of the creation request.
func (c CreateOrderCommand) Spec() order.Spec {
	s := c.spec
	s.Lines = append([]order.LineSpec(nil), c.spec.Lines...)
	return s
}

func (c CreateOrderCommand) Actor() kernel.Actor { return c.actor }

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setSpec(spec order.Spec) error {
	if strings.TrimSpace(spec.ExternalReference) == "" {
		return errs.NewValueIsRequiredError("external reference")
	}
	if len(spec.Lines) == 0 {
		return errs.NewValueIsRequiredError("lines")
	}
	c.spec = spec
	c.spec.Lines = append([]order.LineSpec(nil), spec.Lines...)
	return nil
}

func (c *CreateOrderCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	c.actor = actor
	return nil
}
