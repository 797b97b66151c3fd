// Package errs provides standardized error types for the custody application.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: malformed input
//   - ObjectNotFoundError: an order, product or party cannot be found
//   - ForbiddenError: the caller's role or participation does not allow the action
//   - ConflictError: transfer code mismatch or expiry, duplicate chain build, lost race
//   - VersionIsInvalidError: an optimistic revision check failed on commit
//   - TerminalStateError: the order has no hop left or has already completed
//   - AnchorError: the content-anchor store failed after the mutation committed
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Classify maps any error onto the small set of classes the transport layer
// translates into response codes.
package errs
