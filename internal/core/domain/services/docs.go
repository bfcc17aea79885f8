// Package services provides domain services that operate on the Order
// aggregate without belonging to a single entity.
//
// The package includes:
//   - TransitionEngine: dispatches a requested line action to the line state
//     machine and reports the precondition the store must still hold for the
//     result to be written.
package services
