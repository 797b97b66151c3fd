package queries

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

type GetOrderQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetOrderQueryHandler(uowFactory ports.UnitOfWorkFactory) GetOrderQueryHandler {
	return GetOrderQueryHandler{uowFactory: uowFactory}
}

// Handle returns errs.ForbiddenError when the caller is neither a party of
// the order nor on its chain.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	uow := h.uowFactory.Create()
	o, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	if !o.IsVisibleTo(query.Caller().ID()) {
		return GetOrderQueryResponse{}, errs.NewForbiddenError("view order", "caller is not a party of the order")
	}

	names := newNameResolver(uow.PartyDirectory())
	resp := GetOrderQueryResponse{
		ID:             o.ID(),
		Quantity:       o.Quantity(),
		WorkflowStatus: o.WorkflowStatus().String(),
		DeliveryStatus: o.DeliveryStatus().String(),
		AnchorID:       o.AnchorID(),
		Revision:       o.Revision(),
	}
	if resp.Product, err = productRef(ctx, uow.ProductCatalog(), o.ProductID()); err != nil {
		return GetOrderQueryResponse{}, err
	}
	refs := []struct {
		dst *PartyRef
		id  kernel.UUID
	}{
		{&resp.Buyer, o.Buyer()},
		{&resp.Seller, o.Seller()},
		{&resp.Coordinator, o.Coordinator()},
		{&resp.CurrentHolder, o.CurrentHolder()},
	}
	for _, r := range refs {
		if *r.dst, err = names.ref(ctx, r.id); err != nil {
			return GetOrderQueryResponse{}, err
		}
	}
	if resp.Track, err = trackResponse(ctx, names, o); err != nil {
		return GetOrderQueryResponse{}, err
	}
	return resp, nil
}

func productRef(ctx context.Context, products ports.ProductCatalog, id kernel.UUID) (ProductRef, error) {
	p, err := products.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ProductRef{ID: id}, nil
		}
		return ProductRef{}, err
	}
	return ProductRef{ID: id, Name: p.Name()}, nil
}

func trackResponse(ctx context.Context, names *nameResolver, o *order.Order) ([]HopResponse, error) {
	track := o.Track()
	out := make([]HopResponse, 0, len(track))
	for _, hop := range track {
		ref, err := names.ref(ctx, hop.Owner())
		if err != nil {
			return nil, err
		}
		out = append(out, HopResponse{Party: ref, Received: hop.Received(), Given: hop.Given()})
	}
	return out, nil
}
