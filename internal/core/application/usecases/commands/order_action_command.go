package commands

import (
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/guard"
)

var (
	ErrAdvanceCustodyCommandIsNotConstructed = errors.New(
		"AdvanceCustodyCommand must be created via NewAdvanceCustodyCommand constructor",
	)
	ErrGenerateTransferCodeCommandIsNotConstructed = errors.New(
		"GenerateTransferCodeCommand must be created via NewGenerateTransferCodeCommand constructor",
	)
)

// orderAction is the shape shared by commands that only name an order.
type orderAction struct {
	caller  kernel.Caller
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func newOrderAction(caller kernel.Caller, orderID kernel.UUID) (orderAction, error) {
	if err := errors.Join(caller.Validate(), orderID.Validate()); err != nil {
		return orderAction{}, err
	}
	return orderAction{caller: caller, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (a orderAction) Caller() kernel.Caller {
	return a.caller
}

func (a orderAction) OrderID() kernel.UUID {
	return a.orderID
}

// AdvanceCustodyCommand moves an order's custody forward by one hop.
type AdvanceCustodyCommand struct {
	orderAction
}

func NewAdvanceCustodyCommand(caller kernel.Caller, orderID kernel.UUID) (AdvanceCustodyCommand, error) {
	a, err := newOrderAction(caller, orderID)
	if err != nil {
		return AdvanceCustodyCommand{}, err
	}
	return AdvanceCustodyCommand{orderAction: a}, nil
}

func (c AdvanceCustodyCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceCustodyCommandIsNotConstructed)
}

// GenerateTransferCodeCommand asks for a code authorising the hop after the
// caller's own.
type GenerateTransferCodeCommand struct {
	orderAction
}

func NewGenerateTransferCodeCommand(caller kernel.Caller, orderID kernel.UUID) (GenerateTransferCodeCommand, error) {
	a, err := newOrderAction(caller, orderID)
	if err != nil {
		return GenerateTransferCodeCommand{}, err
	}
	return GenerateTransferCodeCommand{orderAction: a}, nil
}

func (c GenerateTransferCodeCommand) Validate() error {
	return c.guard.Validate(ErrGenerateTransferCodeCommandIsNotConstructed)
}
