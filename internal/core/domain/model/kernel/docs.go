// Package kernel provides the value objects shared by every aggregate of the
// separation domain:
//   - UUID: identifier of orders and line items
//   - Actor: reference of the worker, purchaser or admin performing a transition
//
// Both are immutable and must be created through their constructors; the zero
// values fail Validate.
package kernel
