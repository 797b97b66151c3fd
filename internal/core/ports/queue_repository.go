package ports

import (
	"context"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/registry"
)

// QueueRepository stores the per-party projections of the order registry.
// Every method is idempotent so that a reconciliation pass can replay it.
type QueueRepository interface {
	AddPendingRequest(ctx context.Context, request registry.PendingRequest) error
	RemovePendingRequest(ctx context.Context, coordinatorID, orderID kernel.UUID) error
	HasPendingRequest(ctx context.Context, coordinatorID, orderID kernel.UUID) (bool, error)
	// ListPendingRequests returns the oldest request first.
	ListPendingRequests(ctx context.Context, coordinatorID kernel.UUID) ([]registry.PendingRequest, error)

	// SavePendingDeliveries upserts entries by (party, order).
	SavePendingDeliveries(ctx context.Context, entries []registry.PendingDelivery) error
	// ReplacePendingDeliveries makes entries the only deliveries of orderID.
	ReplacePendingDeliveries(ctx context.Context, orderID kernel.UUID, entries []registry.PendingDelivery) error
	ListPendingDeliveries(ctx context.Context, partyID kernel.UUID) ([]registry.PendingDelivery, error)

	// PurgeOrder drops every request and delivery referencing orderID.
	PurgeOrder(ctx context.Context, orderID kernel.UUID) error
}

// ReconciliationQueue holds order ids whose projections may have diverged
// from the canonical order.
type ReconciliationQueue interface {
	Enqueue(ctx context.Context, orderID kernel.UUID) error
	// Drain removes and returns up to limit ids, oldest first.
	Drain(ctx context.Context, limit int) ([]kernel.UUID, error)
}
