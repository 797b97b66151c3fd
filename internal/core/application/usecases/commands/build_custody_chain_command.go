package commands

import (
	"errors"
	"fmt"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrBuildCustodyChainCommandIsNotConstructed = errors.New(
	"BuildCustodyChainCommand must be created via NewBuildCustodyChainCommand constructor",
)

// BuildCustodyChainCommand represents a coordinator accepting an order and
// naming the intermediaries that will carry it, in custody order.
type BuildCustodyChainCommand struct { //nolint:recvcheck //using for validation
	caller         kernel.Caller
	orderID        kernel.UUID
	intermediaries []kernel.UUID

	guard guard.ConstructorGuard
}

func NewBuildCustodyChainCommand(
	caller kernel.Caller,
	orderID kernel.UUID,
	intermediaries []kernel.UUID,
) (BuildCustodyChainCommand, error) {
	cmd := BuildCustodyChainCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		caller.Validate(),
		orderID.Validate(),
		cmd.setIntermediaries(intermediaries),
	); err != nil {
		return BuildCustodyChainCommand{}, err
	}
	cmd.caller = caller
	cmd.orderID = orderID

	return cmd, nil
}

func (c BuildCustodyChainCommand) Validate() error {
	return c.guard.Validate(ErrBuildCustodyChainCommandIsNotConstructed)
}

func (c BuildCustodyChainCommand) Caller() kernel.Caller {
	return c.caller
}

func (c BuildCustodyChainCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Intermediaries returns a copy in custody order.
func (c BuildCustodyChainCommand) Intermediaries() []kernel.UUID {
	out := make([]kernel.UUID, len(c.intermediaries))
	copy(out, c.intermediaries)
	return out
}

func (c *BuildCustodyChainCommand) setIntermediaries(ids []kernel.UUID) error {
	for i, id := range ids {
		if err := id.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("intermediaries[%d]", i), err)
		}
	}
	c.intermediaries = make([]kernel.UUID, len(ids))
	copy(c.intermediaries, ids)
	return nil
}
