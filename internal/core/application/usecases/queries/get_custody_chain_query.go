package queries

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

var ErrGetCustodyChainQueryIsNotConstructed = errors.New(
	"GetCustodyChainQuery must be created via NewGetCustodyChainQuery constructor",
)

// GetCustodyChainQuery reads the custody chain of an order. Only parties on
// the chain can see it.
type GetCustodyChainQuery struct {
	orderQuery
}

func NewGetCustodyChainQuery(caller kernel.Caller, orderID kernel.UUID) (GetCustodyChainQuery, error) {
	q, err := newOrderQuery(caller, orderID)
	if err != nil {
		return GetCustodyChainQuery{}, err
	}
	return GetCustodyChainQuery{orderQuery: q}, nil
}

func (q GetCustodyChainQuery) Validate() error {
	return q.guard.Validate(ErrGetCustodyChainQueryIsNotConstructed)
}

type GetCustodyChainQueryResponse struct {
	OrderID       kernel.UUID
	CurrentHolder PartyRef
	Frontier      int
	Track         []HopResponse
	AnchorID      string
}

type GetCustodyChainQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetCustodyChainQueryHandler(uowFactory ports.UnitOfWorkFactory) GetCustodyChainQueryHandler {
	return GetCustodyChainQueryHandler{uowFactory: uowFactory}
}

func (h GetCustodyChainQueryHandler) Handle(ctx context.Context, query GetCustodyChainQuery) (GetCustodyChainQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetCustodyChainQueryResponse{}, err
	}

	uow := h.uowFactory.Create()
	o, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return GetCustodyChainQueryResponse{}, err
	}
	if !o.IsParticipant(query.Caller().ID()) {
		return GetCustodyChainQueryResponse{}, errs.NewForbiddenError("view custody chain", "caller is not on the custody chain")
	}

	names := newNameResolver(uow.PartyDirectory())
	holder, err := names.ref(ctx, o.CurrentHolder())
	if err != nil {
		return GetCustodyChainQueryResponse{}, err
	}
	track, err := trackResponse(ctx, names, o)
	if err != nil {
		return GetCustodyChainQueryResponse{}, err
	}

	return GetCustodyChainQueryResponse{
		OrderID:       o.ID(),
		CurrentHolder: holder,
		Frontier:      o.Frontier(),
		Track:         track,
		AnchorID:      o.AnchorID(),
	}, nil
}
