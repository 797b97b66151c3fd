package commands

import (
	"context"
	"fmt"
	"log/slog"

	"custody/internal/core/domain/model/order"
	"custody/internal/pkg/errs"
)

// anchorRecorder anchors a committed order and stores the returned
// identifier. It never rolls back the mutation that was anchored.
type anchorRecorder struct {
	uowFactory UoWFactory
	anchorer   Anchorer
	logger     *slog.Logger
}

// record anchors o. For a completed order the identifier goes to the
// completion record. For a live order it is stored only if no later
// revision was committed meanwhile, since that revision anchors itself.
func (r anchorRecorder) record(ctx context.Context, o *order.Order) (string, error) {
	anchorID, err := r.anchorer.Anchor(ctx, o)
	if err != nil {
		return "", err
	}

	if err = r.store(ctx, o, anchorID); err != nil {
		return anchorID, errs.NewAnchorError(o.ID(), o.Revision(), fmt.Errorf("record anchor id %s: %w", anchorID, err))
	}

	if err = o.RecordAnchor(anchorID); err != nil {
		return anchorID, err
	}
	r.logger.InfoContext(ctx, "track anchored",
		"order_id", o.ID().String(), "revision", o.Revision(), "anchor_id", anchorID)
	return anchorID, nil
}

func (r anchorRecorder) store(ctx context.Context, o *order.Order, anchorID string) error {
	uow := r.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	if o.IsDelivered() {
		if err := repo.RecordCompletionAnchor(ctx, o.ID(), anchorID); err != nil {
			return err
		}
	} else {
		recorded, err := repo.RecordAnchor(ctx, o.ID(), o.Revision(), anchorID)
		if err != nil {
			return err
		}
		if !recorded {
			r.logger.InfoContext(ctx, "anchor superseded by a newer revision",
				"order_id", o.ID().String(), "revision", o.Revision(), "anchor_id", anchorID)
		}
	}
	return uow.Commit(ctx)
}
