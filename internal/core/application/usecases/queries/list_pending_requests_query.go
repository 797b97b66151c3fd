package queries

import (
	"context"
	"errors"
	"time"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

var ErrListPendingRequestsQueryIsNotConstructed = errors.New(
	"ListPendingRequestsQuery must be created via NewListPendingRequestsQuery constructor",
)

// ListPendingRequestsQuery lists the orders waiting for the calling
// coordinator to build their custody chain, oldest first.
type ListPendingRequestsQuery struct {
	callerQuery
}

func NewListPendingRequestsQuery(caller kernel.Caller) (ListPendingRequestsQuery, error) {
	q, err := newCallerQuery(caller)
	if err != nil {
		return ListPendingRequestsQuery{}, err
	}
	return ListPendingRequestsQuery{callerQuery: q}, nil
}

func (q ListPendingRequestsQuery) Validate() error {
	return q.guard.Validate(ErrListPendingRequestsQueryIsNotConstructed)
}

// PendingRequestResponse is one queued order. Order details stay zero when
// the order is gone and the projection has not been reconciled yet.
type PendingRequestResponse struct {
	OrderID     kernel.UUID
	RequestedAt time.Time
	Product     ProductRef
	Quantity    int
	Buyer       PartyRef
	Seller      PartyRef
}

type ListPendingRequestsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListPendingRequestsQueryHandler(uowFactory ports.UnitOfWorkFactory) ListPendingRequestsQueryHandler {
	return ListPendingRequestsQueryHandler{uowFactory: uowFactory}
}

func (h ListPendingRequestsQueryHandler) Handle(ctx context.Context, query ListPendingRequestsQuery) ([]PendingRequestResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	caller := query.Caller()
	if !caller.Is(kernel.RoleCoordinatorAdmin) {
		return nil, errs.NewForbiddenError("list pending requests", "only coordinators have a request queue")
	}

	uow := h.uowFactory.Create()
	requests, err := uow.QueueRepository().ListPendingRequests(ctx, caller.ID())
	if err != nil {
		return nil, err
	}

	names := newNameResolver(uow.PartyDirectory())
	out := make([]PendingRequestResponse, 0, len(requests))
	for _, r := range requests {
		resp := PendingRequestResponse{OrderID: r.OrderID, RequestedAt: r.RequestedAt}

		o, getErr := uow.OrderRepository().Get(ctx, r.OrderID)
		switch {
		case getErr == nil:
			resp.Quantity = o.Quantity()
			if resp.Product, err = productRef(ctx, uow.ProductCatalog(), o.ProductID()); err != nil {
				return nil, err
			}
			if resp.Buyer, err = names.ref(ctx, o.Buyer()); err != nil {
				return nil, err
			}
			if resp.Seller, err = names.ref(ctx, o.Seller()); err != nil {
				return nil, err
			}
		case errors.Is(getErr, errs.ErrObjectNotFound), errors.Is(getErr, errs.ErrTerminalState):
		default:
			return nil, getErr
		}
		out = append(out, resp)
	}
	return out, nil
}
