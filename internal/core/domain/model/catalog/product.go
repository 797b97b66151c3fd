package catalog

import (
	"errors"
	"strings"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrProductIsNotConstructed = errors.New("Product must be created via NewProduct constructor")

type Product struct {
	id          kernel.UUID
	name        string
	seller      kernel.UUID
	coordinator kernel.UUID
	guard       guard.ConstructorGuard
}

func NewProduct(id kernel.UUID, name string, seller, coordinator kernel.UUID) (Product, error) {
	name = strings.TrimSpace(name)

	var nameErr error
	if name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	if err := errors.Join(id.Validate(), nameErr, seller.Validate(), coordinator.Validate()); err != nil {
		return Product{}, err
	}

	return Product{
		id:          id,
		name:        name,
		seller:      seller,
		coordinator: coordinator,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (p Product) Validate() error {
	return p.guard.Validate(ErrProductIsNotConstructed)
}

func (p Product) ID() kernel.UUID {
	return p.id
}

func (p Product) Name() string {
	return p.name
}

func (p Product) Seller() kernel.UUID {
	return p.seller
}

func (p Product) Coordinator() kernel.UUID {
	return p.coordinator
}
