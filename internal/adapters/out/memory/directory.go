package memory

import (
	"context"
	"slices"
	"strings"

	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/party"
	"custody/internal/pkg/errs"
)

type PartyDirectory struct {
	uow *UnitOfWork
}

func (d *PartyDirectory) Get(_ context.Context, id kernel.UUID) (party.Party, error) {
	s := d.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parties[id]
	if !ok {
		return party.Party{}, errs.NewObjectNotFoundError("party", id.String())
	}
	return p, nil
}

func (d *PartyDirectory) ListByRole(_ context.Context, role kernel.Role) ([]party.Party, error) {
	s := d.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]party.Party, 0)
	for _, p := range s.parties {
		if p.Role() == role {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b party.Party) int {
		if c := strings.Compare(a.Name(), b.Name()); c != 0 {
			return c
		}
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return out, nil
}

func (d *PartyDirectory) Save(_ context.Context, p party.Party) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s := d.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.parties[p.ID()]
	s.parties[p.ID()] = p
	d.uow.undo(func() {
		if existed {
			s.parties[p.ID()] = previous
		} else {
			delete(s.parties, p.ID())
		}
	})
	return nil
}

type ProductCatalog struct {
	uow *UnitOfWork
}

func (c *ProductCatalog) FindProduct(_ context.Context, id kernel.UUID) (catalog.Product, error) {
	s := c.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, errs.NewObjectNotFoundError("product", id.String())
	}
	return p, nil
}

func (c *ProductCatalog) Save(_ context.Context, p catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s := c.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.products[p.ID()]
	s.products[p.ID()] = p
	c.uow.undo(func() {
		if existed {
			s.products[p.ID()] = previous
		} else {
			delete(s.products, p.ID())
		}
	})
	return nil
}
