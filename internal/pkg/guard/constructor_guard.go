// Package guard detects value objects, commands and queries that bypassed
// their constructor and are therefore not validated.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller does not
// supply a more specific error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in a struct and only set by its constructor,
// so a zero value can be told apart from a validated instance.
//
// Example:
//
//	var ErrTransferCodeIsNotConstructed = errors.New("TransferCode must be created via NewTransferCode constructor")
//
//	type TransferCode struct {
//	    code  string
//	    guard guard.ConstructorGuard
//	}
//
//	func (c TransferCode) Validate() error {
//	    return c.guard.Validate(ErrTransferCodeIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard that marks its owner as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is
// nil) if the owner was not created through its constructor.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
