package commands

import (
	"context"
	"log/slog"

	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/services"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/metrics"
)

// AdvanceResult is the committed state after a custody advance.
type AdvanceResult struct {
	CustodyResult
	Transfer order.Transfer
}

// AdvanceCustodyCommandHandler moves custody one hop forward, mirrors the two
// affected pending delivery entries and re-anchors the track. The last advance
// completes the order: it is deleted and every party's entry is dropped.
type AdvanceCustodyCommandHandler struct {
	uowFactory          UoWFactory
	projector           services.QueueProjector
	anchors             anchorRecorder
	projections         projectionSync
	retrier             RevisionRetrier
	requireVerifiedCode bool
	metrics             *metrics.Metrics
	logger              *slog.Logger
}

// NewAdvanceCustodyCommandHandler creates the handler. With
// requireVerifiedCode set, an advance consumes a verified transfer code
// issued for the next hop and fails without one.
func NewAdvanceCustodyCommandHandler(
	uowFactory UoWFactory,
	anchorer Anchorer,
	reconciliation ports.ReconciliationQueue,
	retrier RevisionRetrier,
	requireVerifiedCode bool,
	m *metrics.Metrics,
	logger *slog.Logger,
) AdvanceCustodyCommandHandler {
	logger = logger.With("component", "advance_custody")
	return AdvanceCustodyCommandHandler{
		uowFactory:          uowFactory,
		projector:           services.NewQueueProjector(),
		anchors:             anchorRecorder{uowFactory: uowFactory, anchorer: anchorer, logger: logger},
		projections:         projectionSync{queue: reconciliation, logger: logger},
		retrier:             retrier,
		requireVerifiedCode: requireVerifiedCode,
		metrics:             m,
		logger:              logger,
	}
}

func (h *AdvanceCustodyCommandHandler) Handle(ctx context.Context, cmd AdvanceCustodyCommand) (AdvanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return AdvanceResult{}, err
	}

	var (
		o        *order.Order
		transfer order.Transfer
		stale    bool
	)
	err := h.retrier.Do(ctx, "advance_custody", func() error {
		var err error
		o, transfer, stale, err = h.advance(ctx, cmd)
		return err
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	if stale {
		h.projections.reconcileLater(ctx, o.ID())
	}

	h.metrics.IncrementTransfer(o.DeliveryStatus().String())
	h.logger.InfoContext(ctx, "custody advanced",
		"order_id", o.ID().String(),
		"hop", transfer.To,
		"party_id", transfer.ToOwner.String(),
		"delivered", transfer.Delivered,
		"revision", o.Revision(),
	)

	anchorID, err := h.anchors.record(ctx, o)
	return AdvanceResult{CustodyResult: CustodyResult{Order: o, AnchorID: anchorID}, Transfer: transfer}, err
}

func (h *AdvanceCustodyCommandHandler) advance(ctx context.Context, cmd AdvanceCustodyCommand) (*order.Order, order.Transfer, bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, order.Transfer{}, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, order.Transfer{}, false, err
	}

	if o.WorkflowStatus() != order.Accepted {
		return nil, order.Transfer{}, false, errs.NewConflictError("track", "custody chain is not built yet")
	}
	if !o.IsParticipant(cmd.Caller().ID()) {
		return nil, order.Transfer{}, false, errs.NewForbiddenError("advance custody", "caller is not on the custody chain")
	}
	if h.requireVerifiedCode && o.Frontier() < len(o.Track())-1 {
		if err = o.ConsumeTransferCode(); err != nil {
			return nil, order.Transfer{}, false, err
		}
	}

	transfer, err := o.Advance()
	if err != nil {
		return nil, order.Transfer{}, false, err
	}

	var update func(ports.QueueRepository) error
	if transfer.Delivered {
		err = repo.Complete(ctx, o)
		update = func(q ports.QueueRepository) error {
			return q.PurgeOrder(ctx, o.ID())
		}
	} else {
		err = repo.Update(ctx, o)
		entries := h.projector.At(o, transfer.From, transfer.To)
		update = func(q ports.QueueRepository) error {
			return q.SavePendingDeliveries(ctx, entries)
		}
	}
	if err != nil {
		return nil, order.Transfer{}, false, err
	}

	stale, err := h.projections.apply(ctx, uow, o.ID(), update)
	if err != nil {
		return nil, order.Transfer{}, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, order.Transfer{}, false, err
	}
	return o, transfer, stale, nil
}
