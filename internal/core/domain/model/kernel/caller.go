package kernel

import (
	"errors"

	"custody/internal/pkg/guard"
)

var ErrCallerIsNotConstructed = errors.New("Caller must be created via NewCaller constructor")

// Caller is the authenticated identity of a request. Its claims are trusted
// verbatim; only their shape is validated here.
type Caller struct {
	id    UUID
	role  Role
	guard guard.ConstructorGuard
}

func NewCaller(id UUID, role Role) (Caller, error) {
	if err := errors.Join(id.Validate(), role.Validate()); err != nil {
		return Caller{}, err
	}
	return Caller{id: id, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (c Caller) Validate() error {
	return c.guard.Validate(ErrCallerIsNotConstructed)
}

func (c Caller) ID() UUID {
	return c.id
}

func (c Caller) Role() Role {
	return c.role
}

// Is reports whether the caller holds role.
func (c Caller) Is(role Role) bool {
	return c.role == role
}
