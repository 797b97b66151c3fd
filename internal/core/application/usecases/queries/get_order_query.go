package queries

import (
	"errors"

	"custody/internal/core/domain/model/kernel"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery fetches an order with its parties resolved to names. Only the
// order's buyer, seller, coordinator and chain participants may read it.
//
// Example:
//
//	query, err := NewGetOrderQuery(caller, orderID)
//	if err != nil {
//	    return err
//	}
//	o, err := handler.Handle(ctx, query)
type GetOrderQuery struct {
	orderQuery
}

func NewGetOrderQuery(caller kernel.Caller, orderID kernel.UUID) (GetOrderQuery, error) {
	q, err := newOrderQuery(caller, orderID)
	if err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderQuery: q}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// ProductRef is a product id with its catalog name.
type ProductRef struct {
	ID   kernel.UUID
	Name string
}

// HopResponse is one position of the custody chain.
type HopResponse struct {
	Party    PartyRef
	Received bool
	Given    bool
}

type GetOrderQueryResponse struct {
	ID             kernel.UUID
	Product        ProductRef
	Quantity       int
	Buyer          PartyRef
	Seller         PartyRef
	Coordinator    PartyRef
	CurrentHolder  PartyRef
	WorkflowStatus string
	DeliveryStatus string
	Track          []HopResponse
	AnchorID       string
	Revision       int64
}
