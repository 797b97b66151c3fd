package commands

import (
	"context"
	"errors"
	"log/slog"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/registry"
	"custody/internal/core/domain/services"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
	"custody/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

var ErrReconcileProjectionsCommandIsNotConstructed = errors.New(
	"ReconcileProjectionsCommand must be created via NewReconcileProjectionsCommand constructor",
)

// ReconcileProjectionsCommand recomputes one order's projections from the
// canonical order.
type ReconcileProjectionsCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewReconcileProjectionsCommand(orderID kernel.UUID) (ReconcileProjectionsCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ReconcileProjectionsCommand{}, err
	}
	return ReconcileProjectionsCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c ReconcileProjectionsCommand) Validate() error {
	return c.guard.Validate(ErrReconcileProjectionsCommandIsNotConstructed)
}

func (c ReconcileProjectionsCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ReconcileProjectionsCommandHandler rebuilds the pending request and pending
// delivery entries of an order:
//   - a pending order has one request at its coordinator and no deliveries
//   - an accepted order has no request and one delivery per hop
//   - a completed or unknown order has nothing
//
// The order stays locked while its entries are rewritten, so a custody
// mutation committing in between cannot be overwritten with an older view.
type ReconcileProjectionsCommandHandler struct {
	uowFactory  UoWFactory
	queue       ports.ReconciliationQueue
	projector   services.QueueProjector
	clock       kernel.Clock
	parallelism int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewReconcileProjectionsCommandHandler(
	uowFactory UoWFactory,
	queue ports.ReconciliationQueue,
	clock kernel.Clock,
	parallelism int,
	m *metrics.Metrics,
	logger *slog.Logger,
) ReconcileProjectionsCommandHandler {
	if parallelism < 1 {
		parallelism = 1
	}
	return ReconcileProjectionsCommandHandler{
		uowFactory:  uowFactory,
		queue:       queue,
		projector:   services.NewQueueProjector(),
		clock:       clock,
		parallelism: parallelism,
		metrics:     m,
		logger:      logger.With("component", "reconcile_projections"),
	}
}

func (h *ReconcileProjectionsCommandHandler) Handle(ctx context.Context, cmd ReconcileProjectionsCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	queue := uow.QueueRepository()
	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	switch {
	case errors.Is(err, errs.ErrTerminalState), errors.Is(err, errs.ErrObjectNotFound):
		err = queue.PurgeOrder(ctx, cmd.OrderID())
	case err != nil:
		return err
	case o.WorkflowStatus() == order.Pending:
		err = errors.Join(
			queue.ReplacePendingDeliveries(ctx, o.ID(), nil),
			queue.AddPendingRequest(ctx, registry.PendingRequest{
				CoordinatorID: o.Coordinator(),
				OrderID:       o.ID(),
				RequestedAt:   h.clock.Now(),
			}),
		)
	default:
		err = errors.Join(
			queue.RemovePendingRequest(ctx, o.Coordinator(), o.ID()),
			queue.ReplacePendingDeliveries(ctx, o.ID(), h.projector.All(o)),
		)
	}
	if err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// HandleBatch drains up to limit queued orders and reconciles them
// concurrently. Orders that fail are queued again. It returns how many
// orders were reconciled.
func (h *ReconcileProjectionsCommandHandler) HandleBatch(ctx context.Context, limit int) (int, error) {
	ids, err := h.queue.Drain(ctx, limit)
	if err != nil {
		return 0, err
	}

	results := make([]bool, len(ids))
	g := new(errgroup.Group)
	g.SetLimit(h.parallelism)
	for i, id := range ids {
		g.Go(func() error {
			cmd, cmdErr := NewReconcileProjectionsCommand(id)
			if cmdErr == nil {
				cmdErr = h.Handle(ctx, cmd)
			}
			if cmdErr != nil {
				h.metrics.IncrementReconciliation("failed")
				h.logger.WarnContext(ctx, "reconciliation failed, requeueing", "order_id", id.String(), "error", cmdErr)
				return h.queue.Enqueue(ctx, id)
			}
			h.metrics.IncrementReconciliation("ok")
			results[i] = true
			return nil
		})
	}
	err = g.Wait()

	reconciled := 0
	for _, ok := range results {
		if ok {
			reconciled++
		}
	}
	return reconciled, err
}
