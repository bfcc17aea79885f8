package order

import (
	"errors"
	"fmt"

	"separation/internal/core/domain/model/kernel"
)

var (
	// ErrInvalidTransition is the sentinel behind every InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrIncompleteOrder is the sentinel behind every IncompleteOrderError.
	ErrIncompleteOrder = errors.New("order is incomplete")

	// ErrAlreadyFinalized is returned by any mutation of a finalized order.
	ErrAlreadyFinalized = errors.New("order is already finalized")

	// ErrPackagingLogisticsMismatch is the sentinel behind every PackagingLogisticsMismatchError.
	ErrPackagingLogisticsMismatch = errors.New("packaging mode is not allowed for logistics mode")

	// ErrEmptySubstituteDescription is returned when a substitution carries no description.
	ErrEmptySubstituteDescription = errors.New("substitute description is empty")
)

// InvalidTransitionError reports an action whose precondition did not hold for
// the line's current state. HandledBy names the actor that last moved the line,
// which is usually the winner of a race.
type InvalidTransitionError struct {
	LineID    kernel.UUID
	State     LineState
	Action    Action
	HandledBy string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s: cannot %s line %s in state %s", ErrInvalidTransition, e.Action, e.LineID, e.State)
	if e.HandledBy != "" {
		msg += fmt.Sprintf(" (already handled by %s)", e.HandledBy)
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IncompleteOrderError reports a finalize attempt below 100% progress.
type IncompleteOrderError struct {
	OrderID  kernel.UUID
	Progress Progress
}

// Missing is the number of lines still unresolved.
func (e *IncompleteOrderError) Missing() int {
	return e.Progress.Missing()
}

func (e *IncompleteOrderError) Error() string {
	return fmt.Sprintf("%s: order %s has %d of %d lines unresolved",
		ErrIncompleteOrder, e.OrderID, e.Missing(), e.Progress.Total())
}

func (e *IncompleteOrderError) Unwrap() error {
	return ErrIncompleteOrder
}

// PackagingLogisticsMismatchError names the rejected combination.
type PackagingLogisticsMismatchError struct {
	Logistics LogisticsMode
	Packaging PackagingMode
}

func (e *PackagingLogisticsMismatchError) Error() string {
	return fmt.Sprintf("%s: %s shipments must use box packaging, got %s",
		ErrPackagingLogisticsMismatch, e.Logistics, e.Packaging)
}

func (e *PackagingLogisticsMismatchError) Unwrap() error {
	return ErrPackagingLogisticsMismatch
}
