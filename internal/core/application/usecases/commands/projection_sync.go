package commands

import (
	"context"
	"errors"
	"log/slog"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
)

const projectionSavepoint = "projections"

// projectionSync writes projection updates in the transaction of the order
// mutation they derive from, after the conditional order write succeeded. A
// failed update is rolled back to a savepoint so the order still commits;
// the order is queued for reconciliation once the commit went through.
type projectionSync struct {
	queue  ports.ReconciliationQueue
	logger *slog.Logger
}

// apply reports whether the update was discarded. Only a failing savepoint
// is returned as an error, since the transaction is no longer usable then.
func (p projectionSync) apply(
	ctx context.Context,
	uow UoW,
	orderID kernel.UUID,
	update func(ports.QueueRepository) error,
) (bool, error) {
	if err := uow.Savepoint(ctx, projectionSavepoint); err != nil {
		return false, err
	}

	err := update(uow.QueueRepository())
	if err == nil {
		return false, nil
	}

	p.logger.WarnContext(ctx, "projection update failed, scheduling reconciliation",
		"order_id", orderID.String(), "error", err)
	if rbErr := uow.RollbackTo(ctx, projectionSavepoint); rbErr != nil {
		return false, errors.Join(err, rbErr)
	}
	return true, nil
}

// reconcileLater queues orderID after the commit that skipped its
// projection update.
func (p projectionSync) reconcileLater(ctx context.Context, orderID kernel.UUID) {
	if err := p.queue.Enqueue(ctx, orderID); err != nil {
		p.logger.ErrorContext(ctx, "failed to schedule reconciliation",
			"order_id", orderID.String(), "error", err)
	}
}
