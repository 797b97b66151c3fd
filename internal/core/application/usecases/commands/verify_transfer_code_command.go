package commands

import (
	"errors"
	"strings"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrVerifyTransferCodeCommandIsNotConstructed = errors.New(
	"VerifyTransferCodeCommand must be created via NewVerifyTransferCodeCommand constructor",
)

// VerifyTransferCodeCommand presents a transfer code for an order.
type VerifyTransferCodeCommand struct {
	caller  kernel.Caller
	orderID kernel.UUID
	code    string

	guard guard.ConstructorGuard
}

func NewVerifyTransferCodeCommand(caller kernel.Caller, orderID kernel.UUID, code string) (VerifyTransferCodeCommand, error) {
	code = strings.TrimSpace(code)

	var codeErr error
	if code == "" {
		codeErr = errs.NewValueIsRequiredError("code")
	}
	if err := errors.Join(caller.Validate(), orderID.Validate(), codeErr); err != nil {
		return VerifyTransferCodeCommand{}, err
	}

	return VerifyTransferCodeCommand{
		caller:  caller,
		orderID: orderID,
		code:    code,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c VerifyTransferCodeCommand) Validate() error {
	return c.guard.Validate(ErrVerifyTransferCodeCommandIsNotConstructed)
}

func (c VerifyTransferCodeCommand) Caller() kernel.Caller {
	return c.caller
}

func (c VerifyTransferCodeCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c VerifyTransferCodeCommand) Code() string {
	return c.code
}
