package order

import (
	"fmt"

	"separation/internal/pkg/errs"
)

// Status is the order-level lifecycle state.
//
//	InProgress ──finalize──> Finalized
//
// Finalized is terminal and reached exactly once.
type Status int

const (
	// Unknown catches uninitialized Status values.
	Unknown Status = iota

	// InProgress is the status of every order at creation.
	InProgress

	// Finalized is set once all lines are resolved and an actor finalized the order.
	Finalized
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "UNKNOWN",
		InProgress: "IN_PROGRESS",
		Finalized:  "FINALIZED",
	}
}

// ParseStatus converts the persisted representation back into a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if s != InProgress && s != Finalized {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns "IN_PROGRESS", "FINALIZED" or "UNKNOWN".
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Finalize transitions InProgress to Finalized. Any other status yields
// ErrAlreadyFinalized, or a ValueIsInvalidError for an unknown status.
func (s Status) Finalize() (Status, error) {
	switch s {
	case InProgress:
		return Finalized, nil
	case Finalized:
		return Unknown, ErrAlreadyFinalized
	default:
		return Unknown, s.Validate()
	}
}
