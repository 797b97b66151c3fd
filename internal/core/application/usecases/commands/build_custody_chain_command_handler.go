package commands

import (
	"context"
	"log/slog"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/party"
	"custody/internal/core/domain/services"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
)

// CustodyResult is the committed state after a custody mutation. AnchorID is
// empty when anchoring failed.
type CustodyResult struct {
	Order    *order.Order
	AnchorID string
}

// BuildCustodyChainCommandHandler materializes the custody chain of a pending
// order, fans out the pending delivery entries and anchors the new track.
//
// Example:
//
//	handler := NewBuildCustodyChainCommandHandler(uowFactory, anchorer, queue, retrier, logger)
//	cmd, _ := NewBuildCustodyChainCommand(coordinator, orderID, []kernel.UUID{hubA, hubB})
//
//	result, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrAnchorFailed) {
//	    // the chain is built; only the anchor is missing
//	}
type BuildCustodyChainCommandHandler struct {
	uowFactory  UoWFactory
	builder     services.ChainBuilder
	anchors     anchorRecorder
	projections projectionSync
	retrier     RevisionRetrier
	logger      *slog.Logger
}

func NewBuildCustodyChainCommandHandler(
	uowFactory UoWFactory,
	anchorer Anchorer,
	reconciliation ports.ReconciliationQueue,
	retrier RevisionRetrier,
	logger *slog.Logger,
) BuildCustodyChainCommandHandler {
	logger = logger.With("component", "build_custody_chain")
	return BuildCustodyChainCommandHandler{
		uowFactory:  uowFactory,
		builder:     services.NewChainBuilder(),
		anchors:     anchorRecorder{uowFactory: uowFactory, anchorer: anchorer, logger: logger},
		projections: projectionSync{queue: reconciliation, logger: logger},
		retrier:     retrier,
		logger:      logger,
	}
}

// Handle checks, in order: the order exists, the caller is a coordinator,
// the order has not been accepted yet, and it waits in that coordinator's
// pending requests. Anchoring failure is returned together with the result
// because the chain stays built.
func (h *BuildCustodyChainCommandHandler) Handle(ctx context.Context, cmd BuildCustodyChainCommand) (CustodyResult, error) {
	if err := cmd.Validate(); err != nil {
		return CustodyResult{}, err
	}

	var (
		o     *order.Order
		stale bool
	)
	err := h.retrier.Do(ctx, "build_custody_chain", func() error {
		var err error
		o, stale, err = h.build(ctx, cmd)
		return err
	})
	if err != nil {
		return CustodyResult{}, err
	}
	if stale {
		h.projections.reconcileLater(ctx, o.ID())
	}

	h.logger.InfoContext(ctx, "custody chain built",
		"order_id", o.ID().String(), "hops", len(o.Track()), "revision", o.Revision())

	anchorID, err := h.anchors.record(ctx, o)
	return CustodyResult{Order: o, AnchorID: anchorID}, err
}

func (h *BuildCustodyChainCommandHandler) build(
	ctx context.Context,
	cmd BuildCustodyChainCommand,
) (*order.Order, bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, false, err
	}

	caller := cmd.Caller()
	if !caller.Is(kernel.RoleCoordinatorAdmin) {
		return nil, false, errs.NewForbiddenError("build custody chain", "only coordinators can build custody chains")
	}
	if o.WorkflowStatus() == order.Accepted {
		return nil, false, errs.NewConflictError("track", "custody chain is already built")
	}

	pending, err := uow.QueueRepository().HasPendingRequest(ctx, caller.ID(), o.ID())
	if err != nil {
		return nil, false, err
	}
	if !pending {
		return nil, false, errs.NewForbiddenError("build custody chain", "order is not in the caller's pending requests")
	}

	intermediaries := make([]party.Party, 0, len(cmd.Intermediaries()))
	for _, id := range cmd.Intermediaries() {
		p, getErr := uow.PartyDirectory().Get(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		intermediaries = append(intermediaries, p)
	}

	entries, err := h.builder.Build(o, intermediaries)
	if err != nil {
		return nil, false, err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, false, err
	}

	stale, err := h.projections.apply(ctx, uow, o.ID(), func(q ports.QueueRepository) error {
		if err := q.SavePendingDeliveries(ctx, entries); err != nil {
			return err
		}
		return q.RemovePendingRequest(ctx, o.Coordinator(), o.ID())
	})
	if err != nil {
		return nil, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, false, err
	}
	return o, stale, nil
}
