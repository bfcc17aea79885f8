package order

import (
	"fmt"

	"separation/internal/pkg/errs"
)

// LineState is the single state of a line item. Every combination of flags a
// line can be in is one of these values.
//
//	Pending ──separate──────────> Separated
//	Pending ──mark_for_purchase─> AwaitingPurchase ──confirm_purchase─> Purchased ──separate_after_purchase─> Separated
//	Pending ──substitute────────> Substituted
//	Separated ──substitute──────> Substituted (only if the line never entered the purchase flow)
//	Substituted ──substitute────> Substituted (overwrite)
//
// Separated and Substituted count as resolved.
type LineState int

const (
	UnknownLineState LineState = iota
	Pending
	Separated
	AwaitingPurchase
	Purchased
	Substituted
)

func getLineStateStrings() map[LineState]string {
	return map[LineState]string{
		UnknownLineState: "UNKNOWN",
		Pending:          "PENDING",
		Separated:        "SEPARATED",
		AwaitingPurchase: "AWAITING_PURCHASE",
		Purchased:        "PURCHASED",
		Substituted:      "SUBSTITUTED",
	}
}

// ParseLineState converts the persisted name back into a LineState.
func ParseLineState(s string) (LineState, error) {
	for state, str := range getLineStateStrings() {
		if state != UnknownLineState && str == s {
			return state, nil
		}
	}
	return UnknownLineState, errs.NewValueIsInvalidErrorWithCause(
		"line state is invalid",
		fmt.Errorf("%q is not a valid line state", s),
	)
}

func (s LineState) String() string {
	if str, ok := getLineStateStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Validate rejects UnknownLineState and out-of-range values.
func (s LineState) Validate() error {
	if s < Pending || s > Substituted {
		return errs.NewValueIsInvalidErrorWithCause(
			"line state is invalid",
			fmt.Errorf("%d is not a valid line state", s),
		)
	}
	return nil
}

// IsResolved reports whether the line counts toward order progress.
func (s LineState) IsResolved() bool {
	return s == Separated || s == Substituted
}

// IsPurchaseRouted reports whether the line is inside the purchase flow.
func (s LineState) IsPurchaseRouted() bool {
	return s == AwaitingPurchase || s == Purchased
}

// Separate is the direct pick: Pending -> Separated.
func (s LineState) Separate() (LineState, error) {
	return s.move(ActionSeparate, Separated, Pending)
}

// MarkForPurchase defers the line to purchasing: Pending -> AwaitingPurchase.
func (s LineState) MarkForPurchase() (LineState, error) {
	return s.move(ActionMarkForPurchase, AwaitingPurchase, Pending)
}

// ConfirmPurchase records the purchase: AwaitingPurchase -> Purchased.
func (s LineState) ConfirmPurchase() (LineState, error) {
	return s.move(ActionConfirmPurchase, Purchased, AwaitingPurchase)
}

// SeparateAfterPurchase picks a purchased item: Purchased -> Separated.
func (s LineState) SeparateAfterPurchase() (LineState, error) {
	return s.move(ActionSeparateAfterPurchase, Separated, Purchased)
}

// Substitute replaces the product: Pending | Separated | Substituted -> Substituted.
// Lines inside the purchase flow are rejected. The state alone cannot tell a
// Separated line that went through purchasing; LineItem.Substitute rejects
// those from their purchase request stamp.
func (s LineState) Substitute() (LineState, error) {
	return s.move(ActionSubstitute, Substituted, Pending, Separated, Substituted)
}

func (s LineState) move(action Action, to LineState, from ...LineState) (LineState, error) {
	for _, allowed := range from {
		if s == allowed {
			return to, nil
		}
	}
	return UnknownLineState, &InvalidTransitionError{State: s, Action: action}
}

// Action names a line-level operation.
type Action string

const (
	ActionSeparate              Action = "separate"
	ActionMarkForPurchase       Action = "mark_for_purchase"
	ActionConfirmPurchase       Action = "confirm_purchase"
	ActionSeparateAfterPurchase Action = "separate_after_purchase"
	ActionSubstitute            Action = "substitute"
)

// Validate rejects unknown action names.
func (a Action) Validate() error {
	switch a {
	case ActionSeparate, ActionMarkForPurchase, ActionConfirmPurchase, ActionSeparateAfterPurchase, ActionSubstitute:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("action is invalid", fmt.Errorf("%q is not a valid action", string(a)))
	}
}

func (a Action) String() string {
	return string(a)
}
