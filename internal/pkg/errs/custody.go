package errs

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden     = errors.New("action is forbidden")
	ErrConflict      = errors.New("conflict")
	ErrTerminalState = errors.New("terminal state")
	ErrAnchorFailed  = errors.New("anchoring failed")
)

// ForbiddenError reports a caller whose role or chain participation does not
// permit the requested action.
type ForbiddenError struct {
	Action string
	Reason string
}

func NewForbiddenError(action, reason string) *ForbiddenError {
	return &ForbiddenError{Action: action, Reason: reason}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrForbidden, e.Action, e.Reason)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// ConflictError reports a request that is well formed but clashes with the
// current state of the order.
type ConflictError struct {
	ParamName string
	Reason    string
	Cause     error
}

func NewConflictError(paramName, reason string) *ConflictError {
	return &ConflictError{ParamName: paramName, Reason: reason}
}

func NewConflictErrorWithCause(paramName, reason string, cause error) *ConflictError {
	return &ConflictError{ParamName: paramName, Reason: reason, Cause: cause}
}

func (e *ConflictError) Error() string {
	return withCause(fmt.Sprintf("%s: %s: %s", ErrConflict, e.ParamName, e.Reason), e.Cause)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// TerminalStateError reports an operation on an order that cannot move any
// further, either because the frontier sits on the last hop or because the
// order already completed and no longer exists.
type TerminalStateError struct {
	ID     any
	Reason string
}

func NewTerminalStateError(id any, reason string) *TerminalStateError {
	return &TerminalStateError{ID: id, Reason: reason}
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrTerminalState, e.ID, e.Reason)
}

func (e *TerminalStateError) Unwrap() error {
	return ErrTerminalState
}

// AnchorError reports a failed submission to the content-anchor store.
// The mutation identified by Revision has already been committed and stays.
type AnchorError struct {
	OrderID  any
	Revision int64
	Cause    error
}

func NewAnchorError(orderID any, revision int64, cause error) *AnchorError {
	return &AnchorError{OrderID: orderID, Revision: revision, Cause: cause}
}

func (e *AnchorError) Error() string {
	return withCause(fmt.Sprintf("%s: order %s at revision %d", ErrAnchorFailed, e.OrderID, e.Revision), e.Cause)
}

func (e *AnchorError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrAnchorFailed}
	}
	return []error{ErrAnchorFailed, e.Cause}
}
