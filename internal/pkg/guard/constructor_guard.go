package guard

import "errors"

// ErrDefaultConstructorGuard is returned by ConstructorGuard.Validate when the
// caller passes a nil validation error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks a value as created through its constructor. Embedding it
// lets Validate tell a constructed value apart from a zero value, so commands,
// queries and aggregates cannot be used without passing their validation.
//
// Example:
//
//	type SeparateLineCommand struct {
//	    lineID kernel.UUID
//	    guard  guard.ConstructorGuard
//	}
//
//	func (c SeparateLineCommand) Validate() error {
//	    return c.guard.Validate(ErrSeparateLineCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard in the constructed state.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value, and nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
