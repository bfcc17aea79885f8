// Package guard provides ConstructorGuard, a marker embedded in domain objects,
// commands and queries to reject zero values that bypassed their constructors.
package guard
