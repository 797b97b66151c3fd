package queuerepo

import (
	"context"
	"slices"
	"time"

	"custody/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReconciliationQueue implements ports.ReconciliationQueue on a table so
// queued orders survive restarts. An order is queued at most once.
type GormReconciliationQueue struct {
	db    *gorm.DB
	clock kernel.Clock
}

func NewGormReconciliationQueue(db *gorm.DB, clock kernel.Clock) *GormReconciliationQueue {
	return &GormReconciliationQueue{db: db, clock: clock}
}

func (q *GormReconciliationQueue) Enqueue(ctx context.Context, orderID kernel.UUID) error {
	dto := ReconciliationDTO{OrderID: orderID.Bytes(), EnqueuedAt: q.clock.Now()}
	return q.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto).Error
}

// Drain removes up to limit entries. Rows locked by a concurrent drain are
// skipped.
func (q *GormReconciliationQueue) Drain(ctx context.Context, limit int) ([]kernel.UUID, error) {
	if limit <= 0 {
		return nil, nil
	}

	type drained struct {
		OrderID    uuid.UUID
		EnqueuedAt time.Time
	}
	var rows []drained
	err := q.db.WithContext(ctx).Raw(`
		DELETE FROM reconciliation_queue
		WHERE order_id IN (
			SELECT order_id FROM reconciliation_queue
			ORDER BY enqueued_at
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		)
		RETURNING order_id, enqueued_at
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b drained) int {
		return a.EnqueuedAt.Compare(b.EnqueuedAt)
	})
	out := make([]kernel.UUID, 0, len(rows))
	for _, row := range rows {
		id, idErr := kernel.UUIDFromBytes(row.OrderID[:])
		if idErr != nil {
			return nil, idErr
		}
		out = append(out, id)
	}
	return out, nil
}
