package order

import (
	"fmt"

	"custody/internal/pkg/errs"
)

// WorkflowStatus tracks whether a coordinator has built the custody chain.
//
//	Pending ──> Accepted
type WorkflowStatus int

const (
	WorkflowUnknown WorkflowStatus = iota
	Pending
	Accepted
)

func (s WorkflowStatus) Validate() error {
	if s != Pending && s != Accepted {
		return errs.NewValueIsInvalidErrorWithCause("workflow status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s WorkflowStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case WorkflowUnknown:
		return "unknown"
	}
	return "unknown"
}

// Accept moves Pending to Accepted. A second build attempt is a conflict.
func (s WorkflowStatus) Accept() (WorkflowStatus, error) {
	if s != Pending {
		return 0, errs.NewConflictError("workflow status", fmt.Sprintf("%s is not a valid status to accept", s))
	}
	return Accepted, nil
}

// DeliveryStatus tracks physical delivery of the good.
//
//	InTransit ──> Delivered
type DeliveryStatus int

const (
	DeliveryUnknown DeliveryStatus = iota
	InTransit
	Delivered
)

func (s DeliveryStatus) Validate() error {
	if s != InTransit && s != Delivered {
		return errs.NewValueIsInvalidErrorWithCause("delivery status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s DeliveryStatus) String() string {
	switch s {
	case InTransit:
		return "in_transit"
	case Delivered:
		return "delivered"
	case DeliveryUnknown:
		return "unknown"
	}
	return "unknown"
}

// Deliver moves InTransit to Delivered.
func (s DeliveryStatus) Deliver() (DeliveryStatus, error) {
	if s != InTransit {
		return 0, errs.NewTerminalStateError("delivery status", fmt.Sprintf("%s is not a valid status to deliver", s))
	}
	return Delivered, nil
}
