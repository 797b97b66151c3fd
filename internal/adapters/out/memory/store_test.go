package memory_test

import (
	"testing"
	"time"

	"custody/internal/adapters/out/memory"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/registry"
	"custody/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = kernel.ClockFunc(func() time.Time {
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
})

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), 1, kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID())
	require.NoError(t, err)
	return o
}

func TestOrderRepository_ConditionalWrites(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock))
	repo := factory.Create().OrderRepository()

	o := newOrder(t)
	require.NoError(t, repo.Add(ctx, o))

	first, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	require.NoError(t, first.BuildTrack(nil))
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(1), first.Revision())

	require.NoError(t, second.BuildTrack(nil))
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, errs.ErrVersionIsInvalid)

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Accepted, stored.WorkflowStatus())
	assert.Equal(t, int64(1), stored.Revision())
}

func TestOrderRepository_AnchorAndCompletion(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock))
	repo := factory.Create().OrderRepository()

	o := newOrder(t)
	require.NoError(t, repo.Add(ctx, o))
	require.NoError(t, o.BuildTrack(nil))
	require.NoError(t, repo.Update(ctx, o))

	recorded, err := repo.RecordAnchor(ctx, o.ID(), 0, "stale")
	require.NoError(t, err)
	assert.False(t, recorded)

	recorded, err = repo.RecordAnchor(ctx, o.ID(), 1, "bafy-1")
	require.NoError(t, err)
	assert.True(t, recorded)

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, "bafy-1", stored.AnchorID())

	_, err = stored.Advance()
	require.NoError(t, err)
	require.True(t, stored.IsDelivered())
	require.NoError(t, repo.Complete(ctx, stored))

	_, err = repo.Get(ctx, o.ID())
	assert.ErrorIs(t, err, errs.ErrTerminalState)
	require.NoError(t, repo.RecordCompletionAnchor(ctx, o.ID(), "bafy-final"))

	_, err = repo.Get(ctx, kernel.NewUUID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestUnitOfWork_RollbackUndoesWrites(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore(fixedClock)
	factory := memory.NewUnitOfWorkFactory(store)

	o := newOrder(t)
	coordinator := kernel.NewUUID()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	require.NoError(t, uow.QueueRepository().AddPendingRequest(ctx, registry.PendingRequest{
		CoordinatorID: coordinator, OrderID: o.ID(), RequestedAt: fixedClock.Now(),
	}))
	require.NoError(t, uow.Rollback(ctx))

	reader := factory.Create()
	_, err := reader.OrderRepository().Get(ctx, o.ID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	has, err := reader.QueueRepository().HasPendingRequest(ctx, coordinator, o.ID())
	require.NoError(t, err)
	assert.False(t, has)

	assert.ErrorIs(t, uow.Commit(ctx), memory.ErrNoTransaction)
}

func TestUnitOfWork_RollbackKeepsLaterCommits(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock))
	partyID, orderID := kernel.NewUUID(), kernel.NewUUID()

	first := factory.Create()
	require.NoError(t, first.Begin(ctx))
	require.NoError(t, first.QueueRepository().SavePendingDeliveries(ctx, []registry.PendingDelivery{
		{PartyID: partyID, OrderID: orderID, Received: true},
	}))

	done := make(chan error, 1)
	go func() {
		second := factory.Create()
		if err := second.Begin(ctx); err != nil {
			done <- err
			return
		}
		err := second.QueueRepository().SavePendingDeliveries(ctx, []registry.PendingDelivery{
			{PartyID: partyID, OrderID: orderID, Received: true, Given: true},
		})
		if err == nil {
			err = second.Commit(ctx)
		}
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("second transaction finished while the order was held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Rollback(ctx))
	require.NoError(t, <-done)

	list, err := factory.Create().QueueRepository().ListPendingDeliveries(ctx, partyID)
	require.NoError(t, err)
	assert.Equal(t, []registry.PendingDelivery{
		{PartyID: partyID, OrderID: orderID, Received: true, Given: true},
	}, list)
}

func TestUnitOfWork_OtherOrdersDoNotWait(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock))
	held, free := newOrder(t), newOrder(t)
	require.NoError(t, factory.Create().OrderRepository().Add(ctx, held))

	holder := factory.Create()
	require.NoError(t, holder.Begin(ctx))
	_, err := holder.OrderRepository().GetForUpdate(ctx, held.ID())
	require.NoError(t, err)
	defer func() {
		_ = holder.Rollback(ctx)
	}()

	done := make(chan error, 1)
	go func() {
		uow := factory.Create()
		if err := uow.Begin(ctx); err != nil {
			done <- err
			return
		}
		if err := uow.OrderRepository().Add(ctx, free); err != nil {
			done <- err
			return
		}
		done <- uow.Commit(ctx)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("transaction on another order waited for the held one")
	}
}

func TestUnitOfWork_Savepoints(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock))
	o := newOrder(t)

	uow := factory.Create()
	assert.ErrorIs(t, uow.Savepoint(ctx, "projections"), memory.ErrNoTransaction)

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	require.NoError(t, uow.Savepoint(ctx, "projections"))
	require.NoError(t, uow.QueueRepository().AddPendingRequest(ctx, registry.PendingRequest{
		CoordinatorID: o.Coordinator(), OrderID: o.ID(), RequestedAt: fixedClock.Now(),
	}))
	require.NoError(t, uow.RollbackTo(ctx, "projections"))
	assert.Error(t, uow.RollbackTo(ctx, "missing"))
	require.NoError(t, uow.Commit(ctx))

	reader := factory.Create()
	_, err := reader.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err, "writes before the savepoint are committed")
	has, err := reader.QueueRepository().HasPendingRequest(ctx, o.Coordinator(), o.ID())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestQueueRepository(t *testing.T) {
	ctx := t.Context()
	q := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock)).Create().QueueRepository()
	partyID, other := kernel.NewUUID(), kernel.NewUUID()
	orderA, orderB := kernel.NewUUID(), kernel.NewUUID()

	require.NoError(t, q.SavePendingDeliveries(ctx, []registry.PendingDelivery{
		{PartyID: partyID, OrderID: orderA, Received: true},
		{PartyID: partyID, OrderID: orderB},
		{PartyID: other, OrderID: orderA},
	}))
	require.NoError(t, q.SavePendingDeliveries(ctx, []registry.PendingDelivery{
		{PartyID: partyID, OrderID: orderA, Received: true, Given: true},
	}))

	list, err := q.ListPendingDeliveries(ctx, partyID)
	require.NoError(t, err)
	assert.Equal(t, []registry.PendingDelivery{
		{PartyID: partyID, OrderID: orderA, Received: true, Given: true},
		{PartyID: partyID, OrderID: orderB},
	}, list)

	require.NoError(t, q.ReplacePendingDeliveries(ctx, orderA, []registry.PendingDelivery{
		{PartyID: partyID, OrderID: orderA},
	}))
	list, err = q.ListPendingDeliveries(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, q.PurgeOrder(ctx, orderA))
	list, err = q.ListPendingDeliveries(ctx, partyID)
	require.NoError(t, err)
	assert.Equal(t, []registry.PendingDelivery{{PartyID: partyID, OrderID: orderB}}, list)
}

func TestReconciliationQueue(t *testing.T) {
	ctx := t.Context()
	q := memory.NewReconciliationQueue()
	a, b := kernel.NewUUID(), kernel.NewUUID()

	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, b))
	assert.Equal(t, 2, q.Len())

	ids, err := q.Drain(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []kernel.UUID{a}, ids)

	ids, err = q.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []kernel.UUID{b}, ids)
}
