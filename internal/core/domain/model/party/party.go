package party

import (
	"errors"
	"strings"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrPartyIsNotConstructed = errors.New("Party must be created via NewParty constructor")

// Party is a directory entry for one participant.
type Party struct {
	id    kernel.UUID
	name  string
	role  kernel.Role
	guard guard.ConstructorGuard
}

func NewParty(id kernel.UUID, name string, role kernel.Role) (Party, error) {
	name = strings.TrimSpace(name)

	var nameErr error
	if name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	if err := errors.Join(id.Validate(), nameErr, role.Validate()); err != nil {
		return Party{}, err
	}

	return Party{id: id, name: name, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (p Party) Validate() error {
	return p.guard.Validate(ErrPartyIsNotConstructed)
}

func (p Party) ID() kernel.UUID {
	return p.id
}

func (p Party) Name() string {
	return p.name
}

func (p Party) Role() kernel.Role {
	return p.role
}

// CanCarry reports whether the party may be placed on a custody chain as an
// intermediary.
func (p Party) CanCarry() bool {
	return p.role == kernel.RoleMiddleman
}
