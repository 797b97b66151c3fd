package commands

import (
	"errors"
	"strings"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrRegisterPartyCommandIsNotConstructed = errors.New(
	"RegisterPartyCommand must be created via NewRegisterPartyCommand constructor",
)

// RegisterPartyCommand publishes the caller's display name in the party
// directory. Id and role come from the caller's claims.
type RegisterPartyCommand struct {
	caller kernel.Caller
	name   string

	guard guard.ConstructorGuard
}

func NewRegisterPartyCommand(caller kernel.Caller, name string) (RegisterPartyCommand, error) {
	name = strings.TrimSpace(name)

	var nameErr error
	if name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	if err := errors.Join(caller.Validate(), nameErr); err != nil {
		return RegisterPartyCommand{}, err
	}

	return RegisterPartyCommand{caller: caller, name: name, guard: guard.NewConstructorGuard()}, nil
}

func (c RegisterPartyCommand) Validate() error {
	return c.guard.Validate(ErrRegisterPartyCommandIsNotConstructed)
}

func (c RegisterPartyCommand) Caller() kernel.Caller {
	return c.caller
}

func (c RegisterPartyCommand) Name() string {
	return c.name
}
