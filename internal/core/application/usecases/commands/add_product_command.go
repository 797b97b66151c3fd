package commands

import (
	"errors"
	"strings"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrAddProductCommandIsNotConstructed = errors.New(
	"AddProductCommand must be created via NewAddProductCommand constructor",
)

// AddProductCommand lists a product sold by the caller. Orders for it are
// routed to coordinatorID.
type AddProductCommand struct {
	caller        kernel.Caller
	productID     kernel.UUID
	name          string
	coordinatorID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAddProductCommand(caller kernel.Caller, productID kernel.UUID, name string, coordinatorID kernel.UUID) (AddProductCommand, error) {
	name = strings.TrimSpace(name)

	var nameErr error
	if name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	if err := errors.Join(caller.Validate(), productID.Validate(), nameErr, coordinatorID.Validate()); err != nil {
		return AddProductCommand{}, err
	}

	return AddProductCommand{
		caller:        caller,
		productID:     productID,
		name:          name,
		coordinatorID: coordinatorID,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c AddProductCommand) Validate() error {
	return c.guard.Validate(ErrAddProductCommandIsNotConstructed)
}

func (c AddProductCommand) Caller() kernel.Caller {
	return c.caller
}

func (c AddProductCommand) ProductID() kernel.UUID {
	return c.productID
}

func (c AddProductCommand) Name() string {
	return c.name
}

func (c AddProductCommand) CoordinatorID() kernel.UUID {
	return c.coordinatorID
}
