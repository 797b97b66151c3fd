// Package kernel provides the domain primitives shared by every aggregate of
// the custody system.
//
// The package includes:
//   - UUID: identifier value object for orders, products and parties
//   - Role: the closed set of roles a party can hold
//   - Caller: the authenticated identity attached to every request
//   - Clock: an injectable time source used for transfer code expiry
//
// Values are immutable and safe for concurrent use.
package kernel
