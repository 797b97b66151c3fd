package errs

import "errors"

// Class groups errors by how a caller should react to them.
type Class int

const (
	ClassInternal Class = iota
	ClassValidation
	ClassNotFound
	ClassAuthorization
	ClassConflict
	ClassTerminal
	ClassAnchor
)

func (c Class) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassNotFound:
		return "not_found"
	case ClassAuthorization:
		return "authorization"
	case ClassConflict:
		return "conflict"
	case ClassTerminal:
		return "terminal_state"
	case ClassAnchor:
		return "anchor"
	case ClassInternal:
		return "internal"
	}
	return "internal"
}

// IsClientError reports whether the caller, not the server, is at fault.
func (c Class) IsClientError() bool {
	return c != ClassInternal && c != ClassAnchor
}

// Classify returns the class of err. Anchor failures win over everything
// else because they are reported after a committed mutation.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassInternal
	case errors.Is(err, ErrAnchorFailed):
		return ClassAnchor
	case errors.Is(err, ErrTerminalState):
		return ClassTerminal
	case errors.Is(err, ErrForbidden):
		return ClassAuthorization
	case errors.Is(err, ErrConflict), errors.Is(err, ErrVersionIsInvalid):
		return ClassConflict
	case errors.Is(err, ErrObjectNotFound):
		return ClassNotFound
	case errors.Is(err, ErrValueIsRequired), errors.Is(err, ErrValueIsInvalid), errors.Is(err, ErrValueIsOutOfRange):
		return ClassValidation
	}
	return ClassInternal
}
