package commands

import (
	"context"
	"log/slog"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/registry"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

// PlaceOrderCommandHandler creates a pending order held by the product's
// seller and routes it to the product's coordinator.
type PlaceOrderCommandHandler struct {
	uowFactory  UoWFactory
	projections projectionSync
	clock       kernel.Clock
	logger      *slog.Logger
}

func NewPlaceOrderCommandHandler(
	uowFactory UoWFactory,
	reconciliation ports.ReconciliationQueue,
	clock kernel.Clock,
	logger *slog.Logger,
) PlaceOrderCommandHandler {
	logger = logger.With("component", "place_order")
	return PlaceOrderCommandHandler{
		uowFactory:  uowFactory,
		projections: projectionSync{queue: reconciliation, logger: logger},
		clock:       clock,
		logger:      logger,
	}
}

// Handle persists the order and appends it to the coordinator's pending
// requests.
func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Caller().Is(kernel.RoleBuyer) {
		return nil, errs.NewForbiddenError("place order", "only buyers can place orders")
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	product, err := uow.ProductCatalog().FindProduct(ctx, cmd.ProductID())
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(
		cmd.OrderID(),
		product.ID(),
		cmd.Quantity(),
		cmd.Caller().ID(),
		product.Seller(),
		product.Coordinator(),
	)
	if err != nil {
		return nil, err
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}

	request := registry.PendingRequest{
		CoordinatorID: o.Coordinator(),
		OrderID:       o.ID(),
		RequestedAt:   h.clock.Now(),
	}
	stale, err := h.projections.apply(ctx, uow, o.ID(), func(q ports.QueueRepository) error {
		return q.AddPendingRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	if stale {
		h.projections.reconcileLater(ctx, o.ID())
	}

	h.logger.InfoContext(ctx, "order placed",
		"order_id", o.ID().String(), "party_id", o.Buyer().String(), "coordinator_id", o.Coordinator().String())

	return o, nil
}
