// Package queries contains the read side of the custody service. Queries
// never mutate state and read outside of a transaction.
package queries

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

// callerQuery is the shape shared by queries scoped to the caller only.
type callerQuery struct {
	caller kernel.Caller
	guard  guard.ConstructorGuard
}

func newCallerQuery(caller kernel.Caller) (callerQuery, error) {
	if err := caller.Validate(); err != nil {
		return callerQuery{}, err
	}
	return callerQuery{caller: caller, guard: guard.NewConstructorGuard()}, nil
}

func (q callerQuery) Caller() kernel.Caller {
	return q.caller
}

// orderQuery is the shape shared by queries that read one order.
type orderQuery struct {
	caller  kernel.Caller
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func newOrderQuery(caller kernel.Caller, orderID kernel.UUID) (orderQuery, error) {
	if err := errors.Join(caller.Validate(), orderID.Validate()); err != nil {
		return orderQuery{}, err
	}
	return orderQuery{caller: caller, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q orderQuery) Caller() kernel.Caller {
	return q.caller
}

func (q orderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// PartyRef is a party id with its display name. Name is empty when the
// party is missing from the directory.
type PartyRef struct {
	ID   kernel.UUID
	Name string
}

// nameResolver memoizes directory lookups for one query.
type nameResolver struct {
	dir   ports.PartyDirectory
	names map[kernel.UUID]string
}

func newNameResolver(dir ports.PartyDirectory) *nameResolver {
	return &nameResolver{dir: dir, names: make(map[kernel.UUID]string)}
}

func (r *nameResolver) ref(ctx context.Context, id kernel.UUID) (PartyRef, error) {
	if name, ok := r.names[id]; ok {
		return PartyRef{ID: id, Name: name}, nil
	}
	p, err := r.dir.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			r.names[id] = ""
			return PartyRef{ID: id}, nil
		}
		return PartyRef{}, err
	}
	r.names[id] = p.Name()
	return PartyRef{ID: id, Name: p.Name()}, nil
}
