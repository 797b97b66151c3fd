package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"custody/internal/adapters/out/memory"
	"custody/internal/core/application/usecases/commands"
	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/party"
	"custody/internal/core/domain/model/registry"
	"custody/internal/core/domain/services"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnchorer struct{ mock.Mock }

func (m *MockAnchorer) Anchor(ctx context.Context, o *order.Order) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type uowFactoryFunc func() commands.UoW

func (f uowFactoryFunc) Create() commands.UoW {
	return f()
}

// failingQueueUoW breaks every projection write.
type failingQueueUoW struct {
	ports.UnitOfWork
}

func (u failingQueueUoW) QueueRepository() ports.QueueRepository {
	return failingQueue{QueueRepository: u.UnitOfWork.QueueRepository()}
}

type failingQueue struct {
	ports.QueueRepository
}

func (failingQueue) SavePendingDeliveries(context.Context, []registry.PendingDelivery) error {
	return errors.New("projection store unavailable")
}

func (failingQueue) AddPendingRequest(context.Context, registry.PendingRequest) error {
	return errors.New("projection store unavailable")
}

func (failingQueue) PurgeOrder(context.Context, kernel.UUID) error {
	return errors.New("projection store unavailable")
}

// hookedQueueUoW runs beforeReplace ahead of every full projection rewrite.
type hookedQueueUoW struct {
	ports.UnitOfWork
	beforeReplace func()
}

func (u hookedQueueUoW) QueueRepository() ports.QueueRepository {
	return hookedQueue{QueueRepository: u.UnitOfWork.QueueRepository(), beforeReplace: u.beforeReplace}
}

type hookedQueue struct {
	ports.QueueRepository
	beforeReplace func()
}

func (q hookedQueue) ReplacePendingDeliveries(ctx context.Context, orderID kernel.UUID, entries []registry.PendingDelivery) error {
	q.beforeReplace()
	return q.QueueRepository.ReplacePendingDeliveries(ctx, orderID, entries)
}

type fixture struct {
	t        *testing.T
	store    *memory.Store
	factory  commands.UoWFactory
	queue    *memory.ReconciliationQueue
	anchorer *MockAnchorer
	clock    *fakeClock
	logger   *slog.Logger

	buyer       kernel.Caller
	seller      kernel.Caller
	coordinator kernel.Caller
	middleman   kernel.Caller
	product     catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore(clock)
	base := memory.NewUnitOfWorkFactory(store)

	f := &fixture{
		t:     t,
		store: store,
		factory: uowFactoryFunc(func() commands.UoW {
			return base.Create()
		}),
		queue:       memory.NewReconciliationQueue(),
		anchorer:    new(MockAnchorer),
		clock:       clock,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		buyer:       newCaller(t, kernel.RoleBuyer),
		seller:      newCaller(t, kernel.RoleSeller),
		coordinator: newCaller(t, kernel.RoleCoordinatorAdmin),
		middleman:   newCaller(t, kernel.RoleMiddleman),
	}

	ctx := t.Context()
	uow := base.Create()
	for name, c := range map[string]kernel.Caller{
		"buyer": f.buyer, "seller": f.seller, "coordinator": f.coordinator, "hub": f.middleman,
	} {
		p, err := party.NewParty(c.ID(), name, c.Role())
		require.NoError(t, err)
		require.NoError(t, uow.PartyDirectory().Save(ctx, p))
	}

	product, err := catalog.NewProduct(kernel.NewUUID(), "Tea chest", f.seller.ID(), f.coordinator.ID())
	require.NoError(t, err)
	require.NoError(t, uow.ProductCatalog().Save(ctx, product))
	f.product = product

	return f
}

func newCaller(t *testing.T, role kernel.Role) kernel.Caller {
	t.Helper()
	c, err := kernel.NewCaller(kernel.NewUUID(), role)
	require.NoError(t, err)
	return c
}

func (f *fixture) addMiddleman() kernel.Caller {
	c := newCaller(f.t, kernel.RoleMiddleman)
	p, err := party.NewParty(c.ID(), "hub "+c.ID().String()[:8], kernel.RoleMiddleman)
	require.NoError(f.t, err)
	require.NoError(f.t, memory.NewUnitOfWorkFactory(f.store).Create().PartyDirectory().Save(f.t.Context(), p))
	return c
}

func (f *fixture) retrier() commands.RevisionRetrier {
	return commands.NewRevisionRetrier(commands.DefaultConflictRetries, nil, f.logger)
}

func (f *fixture) anchorSucceeds() {
	f.anchorer.On("Anchor", mock.Anything, mock.Anything).Return("bafy-anchor", nil).Maybe()
}

func (f *fixture) placeOrder() *order.Order {
	h := commands.NewPlaceOrderCommandHandler(f.factory, f.queue, f.clock, f.logger)
	cmd, err := commands.NewPlaceOrderCommand(f.buyer, kernel.NewUUID(), f.product.ID(), 1)
	require.NoError(f.t, err)
	o, err := h.Handle(f.t.Context(), cmd)
	require.NoError(f.t, err)
	return o
}

func (f *fixture) buildHandler() commands.BuildCustodyChainCommandHandler {
	return commands.NewBuildCustodyChainCommandHandler(f.factory, f.anchorer, f.queue, f.retrier(), f.logger)
}

func (f *fixture) build(orderID kernel.UUID, intermediaries ...kernel.UUID) commands.CustodyResult {
	h := f.buildHandler()
	cmd, err := commands.NewBuildCustodyChainCommand(f.coordinator, orderID, intermediaries)
	require.NoError(f.t, err)
	result, err := h.Handle(f.t.Context(), cmd)
	require.NoError(f.t, err)
	return result
}

func (f *fixture) advanceHandler(requireVerifiedCode bool) commands.AdvanceCustodyCommandHandler {
	return commands.NewAdvanceCustodyCommandHandler(
		f.factory, f.anchorer, f.queue, f.retrier(), requireVerifiedCode, nil, f.logger,
	)
}

func (f *fixture) generate(caller kernel.Caller, orderID kernel.UUID) (order.TransferCode, error) {
	h := commands.NewGenerateTransferCodeCommandHandler(f.factory, f.retrier(), f.clock, f.logger)
	cmd, err := commands.NewGenerateTransferCodeCommand(caller, orderID)
	require.NoError(f.t, err)
	return h.Handle(f.t.Context(), cmd)
}

func (f *fixture) verify(caller kernel.Caller, orderID kernel.UUID, code string) (order.TransferCode, error) {
	h := commands.NewVerifyTransferCodeCommandHandler(f.factory, f.retrier(), f.clock, f.logger)
	cmd, err := commands.NewVerifyTransferCodeCommand(caller, orderID, code)
	require.NoError(f.t, err)
	return h.Handle(f.t.Context(), cmd)
}

func (f *fixture) advance(h commands.AdvanceCustodyCommandHandler, caller kernel.Caller, orderID kernel.UUID) (commands.AdvanceResult, error) {
	cmd, err := commands.NewAdvanceCustodyCommand(caller, orderID)
	require.NoError(f.t, err)
	return h.Handle(f.t.Context(), cmd)
}

func (f *fixture) deliveries(partyID kernel.UUID) []registry.PendingDelivery {
	list, err := memory.NewUnitOfWorkFactory(f.store).Create().QueueRepository().ListPendingDeliveries(f.t.Context(), partyID)
	require.NoError(f.t, err)
	return list
}

func (f *fixture) requests(coordinatorID kernel.UUID) []registry.PendingRequest {
	list, err := memory.NewUnitOfWorkFactory(f.store).Create().QueueRepository().ListPendingRequests(f.t.Context(), coordinatorID)
	require.NoError(f.t, err)
	return list
}

func (f *fixture) load(orderID kernel.UUID) (*order.Order, error) {
	return memory.NewUnitOfWorkFactory(f.store).Create().OrderRepository().Get(f.t.Context(), orderID)
}

// requireDeliveriesMatchTrack checks that every party holds exactly the
// entry derived from the stored order, or none once the order completed.
func (f *fixture) requireDeliveriesMatchTrack(orderID kernel.UUID, parties []kernel.UUID) {
	f.t.Helper()
	want := make(map[kernel.UUID][]registry.PendingDelivery)
	stored, err := f.load(orderID)
	if !errors.Is(err, errs.ErrTerminalState) {
		require.NoError(f.t, err)
		for _, entry := range services.NewQueueProjector().All(stored) {
			want[entry.PartyID] = append(want[entry.PartyID], entry)
		}
	}

	for _, partyID := range parties {
		var got []registry.PendingDelivery
		for _, entry := range f.deliveries(partyID) {
			if entry.OrderID == orderID {
				got = append(got, entry)
			}
		}
		assert.Equal(f.t, want[partyID], got, "entries of party %s", partyID)
	}
}
