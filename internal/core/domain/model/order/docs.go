// Package order contains the Order aggregate, its LineItem entities and the
// per-line state machine of warehouse separation.
//
// A line is resolved once it is Separated or Substituted; an order can only be
// finalized when every line is resolved. All rejected moves return typed
// errors that unwrap to the package sentinels (ErrInvalidTransition,
// ErrIncompleteOrder, ErrAlreadyFinalized, ErrPackagingLogisticsMismatch,
// ErrEmptySubstituteDescription) so callers can use errors.Is and errors.As.
//
// Nothing here performs I/O; timestamps are always supplied by the caller.
package order
