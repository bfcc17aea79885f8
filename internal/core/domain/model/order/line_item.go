package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/pkg/errs"
	"separation/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// ErrLineItemIsNotConstructed is returned when a zero-value LineItem is used.
var ErrLineItemIsNotConstructed = errors.New("LineItem must be created via NewOrder or RestoreLineItem")

// Stamp records who moved a line and when.
type Stamp struct {
	By kernel.Actor
	At time.Time
}

func newStamp(by kernel.Actor, at time.Time) (*Stamp, error) {
	if err := by.Validate(); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, errs.NewValueIsRequiredError("timestamp")
	}
	return &Stamp{By: by, At: at.UTC()}, nil
}

// LineSpec is the validated creation input of one line. LineTotal is trusted
// as quantity × unit price; it is checked upstream and never recomputed here.
type LineSpec struct {
	ProductCode string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// LineItem is one product line of an Order. Its only mutable parts are the
// state, the stamps of the actors that moved it and the version that is
// bumped on every accepted transition.
type LineItem struct {
	id          kernel.UUID
	orderID     kernel.UUID
	position    int
	productCode string
	description string
	quantity    int
	unitPrice   decimal.Decimal
	lineTotal   decimal.Decimal

	state                 LineState
	separated             *Stamp
	purchaseRequested     *Stamp
	purchaseConfirmed     *Stamp
	substituteDescription string
	version               int64

	guard guard.ConstructorGuard
}

func newLineItem(id, orderID kernel.UUID, position int, spec LineSpec) (*LineItem, error) {
	l := &LineItem{
		id:       id,
		orderID:  orderID,
		position: position,
		state:    Pending,
		version:  1,
		guard:    guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		l.setSpec(spec),
	); err != nil {
		return nil, fmt.Errorf("line %d: %w", position, err)
	}
	return l, nil
}

// RestoreLineItemParams carries a persisted line back into the domain.
type RestoreLineItemParams struct {
	ID                    kernel.UUID
	OrderID               kernel.UUID
	Position              int
	Spec                  LineSpec
	State                 LineState
	Separated             *Stamp
	PurchaseRequested     *Stamp
	PurchaseConfirmed     *Stamp
	SubstituteDescription string
	Version               int64
}

// RestoreLineItem rebuilds a line from storage and checks that its stamps are
// consistent with its state.
func RestoreLineItem(p RestoreLineItemParams) (*LineItem, error) {
	l, err := newLineItem(p.ID, p.OrderID, p.Position, p.Spec)
	if err != nil {
		return nil, err
	}
	if p.Version < 1 {
		return nil, errs.NewValueIsOutOfRangeError("version", p.Version, 1, nil)
	}
	l.state = p.State
	l.separated = p.Separated
	l.purchaseRequested = p.PurchaseRequested
	l.purchaseConfirmed = p.PurchaseConfirmed
	l.substituteDescription = p.SubstituteDescription
	l.version = p.Version

	if err = l.validateStamps(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LineItem) Validate() error {
	if l == nil {
		return ErrLineItemIsNotConstructed
	}
	return l.guard.Validate(ErrLineItemIsNotConstructed)
}

func (l *LineItem) ID() kernel.UUID { return l.id }
func (l *LineItem) OrderID() kernel.UUID { return l.orderID }
func (l *LineItem) Position() int { return l.position }
func (l *LineItem) ProductCode() string { return l.productCode }
func (l *LineItem) Description() string { return l.description }
func (l *LineItem) Quantity() int { return l.quantity }
func (l *LineItem) UnitPrice() decimal.Decimal { return l.unitPrice }
func (l *LineItem) LineTotal() decimal.Decimal { return l.lineTotal }
func (l *LineItem) State() LineState { return l.state }
func (l *LineItem) Version() int64 { return l.version }
func (l *LineItem) SubstituteDescription() string { return l.substituteDescription }

// Separated returns the separation stamp, set on Separated and Substituted lines.
func (l *LineItem) Separated() *Stamp { return copyStamp(l.separated) }

// PurchaseRequested returns the stamp of the actor who sent the line to purchasing.
func (l *LineItem) PurchaseRequested() *Stamp { return copyStamp(l.purchaseRequested) }

// PurchaseConfirmed returns the stamp of the purchaser who confirmed the purchase.
func (l *LineItem) PurchaseConfirmed() *Stamp { return copyStamp(l.purchaseConfirmed) }

// Spec returns the immutable product part of the line.
func (l *LineItem) Spec() LineSpec {
	return LineSpec{
		ProductCode: l.productCode,
		Description: l.description,
		Quantity:    l.quantity,
		UnitPrice:   l.unitPrice,
		LineTotal:   l.lineTotal,
	}
}

// HandledBy is the actor of the most recent accepted transition, or "" for a
// pending line.
func (l *LineItem) HandledBy() string {
	var s *Stamp
	switch l.state {
	case Separated, Substituted:
		s = l.separated
	case AwaitingPurchase:
		s = l.purchaseRequested
	case Purchased:
		s = l.purchaseConfirmed
	case UnknownLineState, Pending:
	}
	if s == nil {
		return ""
	}
	return s.By.String()
}

// Separate picks a pending line.
func (l *LineItem) Separate(actor kernel.Actor, now time.Time) error {
	stamp, err := newStamp(actor, now)
	if err != nil {
		return err
	}
	next, err := l.state.Separate()
	if err != nil {
		return l.rejected(err)
	}
	l.separated = stamp
	l.advance(next)
	return nil
}

// MarkForPurchase sends a pending line to purchasing.
func (l *LineItem) MarkForPurchase(actor kernel.Actor, now time.Time) error {
	stamp, err := newStamp(actor, now)
	if err != nil {
		return err
	}
	next, err := l.state.MarkForPurchase()
	if err != nil {
		return l.rejected(err)
	}
	l.purchaseRequested = stamp
	l.advance(next)
	return nil
}

// ConfirmPurchase records that purchasing bought the item. Progress is unchanged.
func (l *LineItem) ConfirmPurchase(actor kernel.Actor, now time.Time) error {
	stamp, err := newStamp(actor, now)
	if err != nil {
		return err
	}
	next, err := l.state.ConfirmPurchase()
	if err != nil {
		return l.rejected(err)
	}
	l.purchaseConfirmed = stamp
	l.advance(next)
	return nil
}

// SeparateAfterPurchase picks a purchased item once it arrived.
func (l *LineItem) SeparateAfterPurchase(actor kernel.Actor, now time.Time) error {
	stamp, err := newStamp(actor, now)
	if err != nil {
		return err
	}
	next, err := l.state.SeparateAfterPurchase()
	if err != nil {
		return l.rejected(err)
	}
	l.separated = stamp
	l.advance(next)
	return nil
}

// Substitute resolves the line with a replacement product. A repeated call
// overwrites the description and the separation stamp. Lines that ever
// entered the purchase flow are rejected, including those separated after
// purchase.
func (l *LineItem) Substitute(description string, actor kernel.Actor, now time.Time) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrEmptySubstituteDescription
	}
	stamp, err := newStamp(actor, now)
	if err != nil {
		return err
	}
	if l.purchaseRequested != nil {
		return l.rejected(&InvalidTransitionError{State: l.state, Action: ActionSubstitute})
	}
	next, err := l.state.Substitute()
	if err != nil {
		return l.rejected(err)
	}
	l.separated = stamp
	l.substituteDescription = description
	l.advance(next)
	return nil
}

func (l *LineItem) advance(next LineState) {
	l.state = next
	l.version++
}

func (l *LineItem) rejected(err error) error {
	var ite *InvalidTransitionError
	if errors.As(err, &ite) {
		ite.LineID = l.id
		ite.HandledBy = l.HandledBy()
	}
	return err
}

func (l *LineItem) setSpec(spec LineSpec) error {
	code := strings.TrimSpace(spec.ProductCode)
	if code == "" {
		return errs.NewValueIsRequiredError("product code")
	}
	description := strings.TrimSpace(spec.Description)
	if description == "" {
		return errs.NewValueIsRequiredError("product description")
	}
	if spec.Quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", spec.Quantity))
	}
	if spec.UnitPrice.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("unit price is invalid", fmt.Errorf("%s is negative", spec.UnitPrice))
	}
	if spec.LineTotal.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("line total is invalid", fmt.Errorf("%s is negative", spec.LineTotal))
	}
	l.productCode = code
	l.description = description
	l.quantity = spec.Quantity
	l.unitPrice = spec.UnitPrice
	l.lineTotal = spec.LineTotal
	return nil
}

func (l *LineItem) validateStamps() error {
	if err := l.state.Validate(); err != nil {
		return err
	}
	invalid := func(reason string) error {
		return errs.NewValueIsInvalidErrorWithCause(
			"line item is inconsistent",
			fmt.Errorf("line %s in state %s %s", l.id, l.state, reason),
		)
	}
	hasSubstitute := l.substituteDescription != ""

	switch l.state {
	case Pending:
		if l.separated != nil || l.purchaseRequested != nil || l.purchaseConfirmed != nil || hasSubstitute {
			return invalid("must carry no stamps")
		}
	case AwaitingPurchase:
		if l.purchaseRequested == nil || l.purchaseConfirmed != nil || l.separated != nil || hasSubstitute {
			return invalid("must carry only the purchase request stamp")
		}
	case Purchased:
		if l.purchaseRequested == nil || l.purchaseConfirmed == nil || l.separated != nil || hasSubstitute {
			return invalid("must carry both purchase stamps and no separation stamp")
		}
	case Separated:
		if l.separated == nil || hasSubstitute {
			return invalid("must carry a separation stamp and no substitute")
		}
		if (l.purchaseRequested == nil) != (l.purchaseConfirmed == nil) {
			return invalid("must carry either both purchase stamps or none")
		}
	case Substituted:
		if l.separated == nil || !hasSubstitute || l.purchaseRequested != nil || l.purchaseConfirmed != nil {
			return invalid("must carry a separation stamp and a substitute description only")
		}
	case UnknownLineState:
		return invalid("is unknown")
	}
	return nil
}

func copyStamp(s *Stamp) *Stamp {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
