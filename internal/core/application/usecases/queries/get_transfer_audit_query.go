package queries

import (
	"context"
	"errors"
	"time"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

var ErrGetTransferAuditQueryIsNotConstructed = errors.New(
	"GetTransferAuditQuery must be created via NewGetTransferAuditQuery constructor",
)

// GetTransferAuditQuery returns the chain together with the metadata of the
// outstanding transfer code. The code digits are never part of the response.
//
// Example:
//
//	query, _ := NewGetTransferAuditQuery(caller, orderID)
//	audit, err := handler.Handle(ctx, query)
//	if audit.TransferCode != nil && audit.TransferCode.Expired {
//	    // ask the holder for a new code
//	}
type GetTransferAuditQuery struct {
	orderQuery
}

func NewGetTransferAuditQuery(caller kernel.Caller, orderID kernel.UUID) (GetTransferAuditQuery, error) {
	q, err := newOrderQuery(caller, orderID)
	if err != nil {
		return GetTransferAuditQuery{}, err
	}
	return GetTransferAuditQuery{orderQuery: q}, nil
}

func (q GetTransferAuditQuery) Validate() error {
	return q.guard.Validate(ErrGetTransferAuditQueryIsNotConstructed)
}

// TransferCodeAudit describes an issued transfer code without its digits.
type TransferCodeAudit struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	TargetHop int
	Verified  bool
	Expired   bool
}

type GetTransferAuditQueryResponse struct {
	OrderID       kernel.UUID
	Product       ProductRef
	CurrentHolder PartyRef
	Track         []HopResponse
	AnchorID      string
	TransferCode  *TransferCodeAudit
}

type GetTransferAuditQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
	clock      kernel.Clock
}

func NewGetTransferAuditQueryHandler(uowFactory ports.UnitOfWorkFactory, clock kernel.Clock) GetTransferAuditQueryHandler {
	return GetTransferAuditQueryHandler{uowFactory: uowFactory, clock: clock}
}

func (h GetTransferAuditQueryHandler) Handle(ctx context.Context, query GetTransferAuditQuery) (GetTransferAuditQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetTransferAuditQueryResponse{}, err
	}

	uow := h.uowFactory.Create()
	o, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return GetTransferAuditQueryResponse{}, err
	}
	if !o.IsParticipant(query.Caller().ID()) {
		return GetTransferAuditQueryResponse{}, errs.NewForbiddenError("view transfer audit", "caller is not on the custody chain")
	}

	resp := GetTransferAuditQueryResponse{OrderID: o.ID(), AnchorID: o.AnchorID()}
	if resp.Product, err = productRef(ctx, uow.ProductCatalog(), o.ProductID()); err != nil {
		return GetTransferAuditQueryResponse{}, err
	}
	names := newNameResolver(uow.PartyDirectory())
	if resp.CurrentHolder, err = names.ref(ctx, o.CurrentHolder()); err != nil {
		return GetTransferAuditQueryResponse{}, err
	}
	if resp.Track, err = trackResponse(ctx, names, o); err != nil {
		return GetTransferAuditQueryResponse{}, err
	}

	if code, ok := o.TransferCode(); ok {
		resp.TransferCode = &TransferCodeAudit{
			IssuedAt:  code.IssuedAt(),
			ExpiresAt: code.ExpiresAt(),
			TargetHop: code.TargetHop(),
			Verified:  code.IsVerified(),
			Expired:   code.IsExpired(h.clock.Now()),
		}
	}
	return resp, nil
}
