package queries

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

var ErrListPendingDeliveriesQueryIsNotConstructed = errors.New(
	"ListPendingDeliveriesQuery must be created via NewListPendingDeliveriesQuery constructor",
)

// ListPendingDeliveriesQuery lists the orders whose chain runs through the
// caller and that are not delivered yet.
type ListPendingDeliveriesQuery struct {
	callerQuery
}

func NewListPendingDeliveriesQuery(caller kernel.Caller) (ListPendingDeliveriesQuery, error) {
	q, err := newCallerQuery(caller)
	if err != nil {
		return ListPendingDeliveriesQuery{}, err
	}
	return ListPendingDeliveriesQuery{callerQuery: q}, nil
}

func (q ListPendingDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrListPendingDeliveriesQueryIsNotConstructed)
}

// PendingDeliveryResponse mirrors the caller's hop on one order.
type PendingDeliveryResponse struct {
	OrderID       kernel.UUID
	Received      bool
	Given         bool
	Product       ProductRef
	CurrentHolder PartyRef
}

type ListPendingDeliveriesQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListPendingDeliveriesQueryHandler(uowFactory ports.UnitOfWorkFactory) ListPendingDeliveriesQueryHandler {
	return ListPendingDeliveriesQueryHandler{uowFactory: uowFactory}
}

func (h ListPendingDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query ListPendingDeliveriesQuery,
) ([]PendingDeliveryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	entries, err := uow.QueueRepository().ListPendingDeliveries(ctx, query.Caller().ID())
	if err != nil {
		return nil, err
	}

	names := newNameResolver(uow.PartyDirectory())
	out := make([]PendingDeliveryResponse, 0, len(entries))
	for _, e := range entries {
		resp := PendingDeliveryResponse{OrderID: e.OrderID, Received: e.Received, Given: e.Given}

		o, getErr := uow.OrderRepository().Get(ctx, e.OrderID)
		switch {
		case getErr == nil:
			if resp.Product, err = productRef(ctx, uow.ProductCatalog(), o.ProductID()); err != nil {
				return nil, err
			}
			if resp.CurrentHolder, err = names.ref(ctx, o.CurrentHolder()); err != nil {
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
