// Package ports defines the contracts between the custody domain and the
// infrastructure around it: persistence, the party directory, the product
// catalog and the content-anchor store.
package ports

import (
	"context"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
//
// Writes are conditional on the revision the aggregate was loaded with. A
// write against a stale revision fails with errs.VersionIsInvalidError and
// changes nothing; a successful write calls MarkCommitted on the aggregate.
type OrderRepository interface {
	// Add persists a new order at revision 0.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists every mutable field of an existing order.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id. An order that completed earlier yields
	// errs.TerminalStateError, an unknown id yields errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate is Get that also keeps every other write to the order
	// waiting until the current transaction ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// Complete deletes a delivered order and leaves a completion record in its
	// place. This is the only way an order is destroyed.
	Complete(ctx context.Context, aggregate *order.Order) error

	// RecordAnchor stores anchorID on the order if it is still at revision.
	// It reports false without error when the order moved on or completed.
	// The revision is not bumped.
	RecordAnchor(ctx context.Context, id kernel.UUID, revision int64, anchorID string) (bool, error)

	// RecordCompletionAnchor stores the final anchor of a completed order.
	RecordCompletionAnchor(ctx context.Context, id kernel.UUID, anchorID string) error
}
