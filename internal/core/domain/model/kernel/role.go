package kernel

import (
	"fmt"

	"custody/internal/pkg/errs"
)

// Role is the closed set of roles the identity provider may assert for a
// caller. Anything outside the set is rejected by ParseRole at the boundary.
type Role int

const (
	// RoleUnknown is the zero value and never valid.
	RoleUnknown Role = iota
	RoleBuyer
	RoleSeller
	RoleMiddleman
	RoleCoordinatorAdmin
)

var roleNames = map[Role]string{
	RoleBuyer:            "Buyer",
	RoleSeller:           "Seller",
	RoleMiddleman:        "Middleman",
	RoleCoordinatorAdmin: "CoordinatorAdmin",
}

// ParseRole maps a role claim onto Role. The legacy claim "DeliveryAdmin"
// is accepted as an alias of CoordinatorAdmin.
func ParseRole(s string) (Role, error) {
	switch s {
	case "Buyer":
		return RoleBuyer, nil
	case "Seller":
		return RoleSeller, nil
	case "Middleman":
		return RoleMiddleman, nil
	case "CoordinatorAdmin", "DeliveryAdmin":
		return RoleCoordinatorAdmin, nil
	}
	return RoleUnknown, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a recognized role", s))
}

func (r Role) Validate() error {
	if _, ok := roleNames[r]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
	}
	return nil
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}
