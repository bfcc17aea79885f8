package kernel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"separation/internal/pkg/errs"
	"separation/internal/pkg/guard"
)

// actorMaxLength matches the varchar width of every *_by column.
const actorMaxLength = 128

// ErrActorIsNotConstructed is returned when a zero-value Actor is used.
var ErrActorIsNotConstructed = errs.NewValueIsRequiredError("Actor must be created via NewActor")

// Actor identifies the authenticated worker, purchaser or admin performing a
// transition. Authentication happens outside the service; Actor only carries
// the reference it produced.
type Actor struct {
	ref   string
	guard guard.ConstructorGuard
}

// NewActor trims ref and rejects empty or oversized references.
func NewActor(ref string) (Actor, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor")
	}
	if n := utf8.RuneCountInString(ref); n > actorMaxLength {
		return Actor{}, errs.NewValueIsOutOfRangeErrorWithCause(
			"actor length", n, 1, actorMaxLength,
			fmt.Errorf("actor reference is longer than %d characters", actorMaxLength),
		)
	}
	return Actor{ref: ref, guard: guard.NewConstructorGuard()}, nil
}

// String returns the actor reference.
func (a Actor) String() string {
	return a.ref
}

// IsEqual compares actors by reference.
func (a Actor) IsEqual(other Actor) bool {
	return a.ref == other.ref
}

// Validate returns ErrActorIsNotConstructed for the zero value.
func (a Actor) Validate() error {
	return a.guard.Validate(ErrActorIsNotConstructed)
}
