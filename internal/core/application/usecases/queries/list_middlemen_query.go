package queries

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

var ErrListMiddlemenQueryIsNotConstructed = errors.New(
	"ListMiddlemenQuery must be created via NewListMiddlemenQuery constructor",
)

// ListMiddlemenQuery lists the parties a coordinator can put on a chain.
type ListMiddlemenQuery struct {
	callerQuery
}

func NewListMiddlemenQuery(caller kernel.Caller) (ListMiddlemenQuery, error) {
	q, err := newCallerQuery(caller)
	if err != nil {
		return ListMiddlemenQuery{}, err
	}
	return ListMiddlemenQuery{callerQuery: q}, nil
}

func (q ListMiddlemenQuery) Validate() error {
	return q.guard.Validate(ErrListMiddlemenQueryIsNotConstructed)
}

type ListMiddlemenQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListMiddlemenQueryHandler(uowFactory ports.UnitOfWorkFactory) ListMiddlemenQueryHandler {
	return ListMiddlemenQueryHandler{uowFactory: uowFactory}
}

// Handle returns middlemen ordered by name.
func (h ListMiddlemenQueryHandler) Handle(ctx context.Context, query ListMiddlemenQuery) ([]PartyRef, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if !query.Caller().Is(kernel.RoleCoordinatorAdmin) {
		return nil, errs.NewForbiddenError("list middlemen", "only coordinators pick intermediaries")
	}

	parties, err := h.uowFactory.Create().PartyDirectory().ListByRole(ctx, kernel.RoleMiddleman)
	if err != nil {
		return nil, err
	}
	out := make([]PartyRef, 0, len(parties))
	for _, p := range parties {
		out = append(out, PartyRef{ID: p.ID(), Name: p.Name()})
	}
	return out, nil
}
