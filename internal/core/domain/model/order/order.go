package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/pkg/errs"
	"separation/internal/pkg/guard"
)

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through NewOrder or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

// Spec is the validated creation request of an order.
type Spec struct {
	ExternalReference string
	Client            string
	Salesperson       string
	Notes             string
	Logistics         LogisticsMode
	Packaging         PackagingMode
	Lines             []LineSpec
}

// Order is the aggregate root of one wholesale order being separated on the
// warehouse floor.
//
// Order follows these invariants:
//   - external reference is non-empty and never changes
//   - carrier-post, alternate-carrier and bus-freight orders are packed in boxes
//   - the line collection has at least one line and is fixed after creation
//   - status goes from InProgress to Finalized exactly once, and only at 100% progress
//
// Lines are mutated through LineItem methods; the order itself only changes on
// ChangeShipping and Finalize.
type Order struct {
	id                kernel.UUID
	externalReference string
	client            string
	salesperson       string
	notes             string
	logistics         LogisticsMode
	packaging         PackagingMode
	status            Status
	startedAt         time.Time
	finalizedAt       *time.Time
	finalizedBy       *kernel.Actor
	lines             []*LineItem

	guard guard.ConstructorGuard
}

// NewOrder creates an InProgress order with all its lines in Pending. Line ids
// are generated; line positions follow the order of spec.Lines starting at 1.
//
// The packaging/logistics rule is checked before any line is built, so a
// mismatching request fails with PackagingLogisticsMismatchError alone.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), order.Spec{
//	    ExternalReference: "PED-2024-0042",
//	    Client:            "Mercado Central",
//	    Salesperson:       "rep-07",
//	    Logistics:         order.CarrierPost,
//	    Packaging:         order.Box,
//	    Lines:             lines,
//	}, time.Now())
func NewOrder(id kernel.UUID, spec Spec, now time.Time) (*Order, error) {
	if err := ValidateShipping(spec.Logistics, spec.Packaging); err != nil {
		return nil, err
	}
	if now.IsZero() {
		return nil, errs.NewValueIsRequiredError("started at")
	}

	o := &Order{
		status:    InProgress,
		startedAt: now.UTC(),
		logistics: spec.Logistics,
		packaging: spec.Packaging,
		notes:     strings.TrimSpace(spec.Notes),
		guard:     guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		o.setID(id),
		o.setHeader(spec),
	); err != nil {
		return nil, err
	}

	if len(spec.Lines) == 0 {
		return nil, errs.NewValueIsRequiredError("lines")
	}
	o.lines = make([]*LineItem, 0, len(spec.Lines))
	var lineErrs []error
	for i, ls := range spec.Lines {
		line, err := newLineItem(kernel.NewUUID(), id, i+1, ls)
		if err != nil {
			lineErrs = append(lineErrs, err)
			continue
		}
		o.lines = append(o.lines, line)
	}
	if err := errors.Join(lineErrs...); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrderParams carries a persisted order back into the domain.
type RestoreOrderParams struct {
	ID                kernel.UUID
	ExternalReference string
	Client            string
	Salesperson       string
	Notes             string
	Logistics         LogisticsMode
	Packaging         PackagingMode
	Status            Status
	StartedAt         time.Time
	FinalizedAt       *time.Time
	FinalizedBy       *kernel.Actor
	Lines             []*LineItem
}

// RestoreOrder rebuilds an order from storage. Lines must already be restored
// and belong to the order; they are kept in the given order.
func RestoreOrder(p RestoreOrderParams) (*Order, error) {
	o := &Order{
		notes:       p.Notes,
		logistics:   p.Logistics,
		packaging:   p.Packaging,
		status:      p.Status,
		startedAt:   p.StartedAt,
		finalizedAt: p.FinalizedAt,
		finalizedBy: p.FinalizedBy,
		guard:       guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		o.setID(p.ID),
		o.setHeader(Spec{ExternalReference: p.ExternalReference, Client: p.Client, Salesperson: p.Salesperson}),
		ValidateShipping(p.Logistics, p.Packaging),
		p.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if p.StartedAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("started at")
	}
	if (p.Status == Finalized) != (p.FinalizedAt != nil && p.FinalizedBy != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"order is inconsistent",
			fmt.Errorf("status %s does not match the finalization stamp", p.Status),
		)
	}
	if len(p.Lines) == 0 {
		return nil, errs.NewValueIsRequiredError("lines")
	}
	for _, l := range p.Lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if !l.OrderID().IsEqual(p.ID) {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				"line item is invalid",
				fmt.Errorf("line %s belongs to order %s", l.ID(), l.OrderID()),
			)
		}
	}
	o.lines = append([]*LineItem(nil), p.Lines...)

	if p.Status == Finalized && !o.Progress().IsComplete() {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"order is inconsistent",
			fmt.Errorf("finalized order has progress %s", o.Progress()),
		)
	}
	return o, nil
}

// Validate ensures the Order was built through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares orders by id.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID { return o.id }
func (o *Order) ExternalReference() string { return o.externalReference }
func (o *Order) Client() string { return o.client }
func (o *Order) Salesperson() string { return o.salesperson }
func (o *Order) Notes() string { return o.notes }
func (o *Order) Logistics() LogisticsMode { return o.logistics }
func (o *Order) Packaging() PackagingMode { return o.packaging }
func (o *Order) Status() Status { return o.status }
func (o *Order) StartedAt() time.Time { return o.startedAt }
func (o *Order) FinalizedAt() *time.Time { return o.finalizedAt }
func (o *Order) FinalizedBy() *kernel.Actor { return o.finalizedBy }
func (o *Order) IsFinalized() bool { return o.status == Finalized }

// Lines returns the lines in insertion order. The slice is a copy; the
// elements are the aggregate's own lines.
func (o *Order) Lines() []*LineItem {
	return append([]*LineItem(nil), o.lines...)
}

// Line looks up a line of this order. Lines of other orders are reported as
// not found.
func (o *Order) Line(lineID kernel.UUID) (*LineItem, error) {
	for _, l := range o.lines {
		if l.ID().IsEqual(lineID) {
			return l, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("line_id", lineID)
}

// Progress derives resolved/total from the current lines.
func (o *Order) Progress() Progress {
	return ProgressOf(o.lines)
}

// ChangeShipping replaces the logistics and packaging modes of an InProgress
// order. The box rule applies as at creation.
func (o *Order) ChangeShipping(logistics LogisticsMode, packaging PackagingMode) error {
	if o.status == Finalized {
		return ErrAlreadyFinalized
	}
	if err := ValidateShipping(logistics, packaging); err != nil {
		return err
	}
	o.logistics = logistics
	o.packaging = packaging
	return nil
}

// Finalize closes a fully resolved order and returns the time the separation
// took. A finalized order yields ErrAlreadyFinalized; an unresolved one an
// *IncompleteOrderError with the missing count.
func (o *Order) Finalize(actor kernel.Actor, now time.Time) (time.Duration, error) {
	if err := actor.Validate(); err != nil {
		return 0, err
	}
	if now.IsZero() {
		return 0, errs.NewValueIsRequiredError("finalized at")
	}
	if o.status == Finalized {
		return 0, ErrAlreadyFinalized
	}
	if p := o.Progress(); !p.IsComplete() {
		return 0, &IncompleteOrderError{OrderID: o.id, Progress: p}
	}

	next, err := o.status.Finalize()
	if err != nil {
		return 0, err
	}
	at := now.UTC()
	o.status = next
	o.finalizedAt = &at
	o.finalizedBy = &actor
	return o.Elapsed(), nil
}

// Elapsed is finalizedAt - startedAt, or zero while the order is in progress.
func (o *Order) Elapsed() time.Duration {
	if o.finalizedAt == nil {
		return 0
	}
	return o.finalizedAt.Sub(o.startedAt)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setHeader(spec Spec) error {
	ref := strings.TrimSpace(spec.ExternalReference)
	client := strings.TrimSpace(spec.Client)
	salesperson := strings.TrimSpace(spec.Salesperson)

	var all []error
	if ref == "" {
		all = append(all, errs.NewValueIsRequiredError("external reference"))
	}
	if client == "" {
		all = append(all, errs.NewValueIsRequiredError("client"))
	}
	if salesperson == "" {
		all = append(all, errs.NewValueIsRequiredError("salesperson"))
	}
	if err := errors.Join(all...); err != nil {
		return err
	}

	o.externalReference = ref
	o.client = client
	o.salesperson = salesperson
	return nil
}
