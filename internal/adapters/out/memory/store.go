// Package memory keeps every custody aggregate and projection in process.
// It backs STORAGE=memory deployments and the use case tests, and mirrors
// the conditional write semantics of the postgres adapter.
//
// A unit of work inside Begin/Commit takes an exclusive lock on every order
// it reads or writes and keeps it until Commit or Rollback, the way a row
// lock would. Transactions on the same order therefore run one after the
// other, and a rollback never undoes another transaction's committed write
// to that order or its projections.
//
// Limitations:
//   - Writes are applied to the shared maps immediately, so reads made
//     outside a transaction can observe uncommitted state
//   - Parties and products are not locked; concurrent writers of the same
//     directory entry must not roll back after writing
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/party"
	"custody/internal/core/domain/model/registry"
	"custody/internal/core/ports"
)

var ErrNoTransaction = errors.New("memory: no active transaction")

type completion struct {
	completedAt time.Time
	anchorID    string
}

type deliveryRow struct {
	entry registry.PendingDelivery
	seq   int64
}

// Store is shared by every unit of work created from the same factory.
type Store struct {
	mu    sync.Mutex
	clock kernel.Clock

	orders     map[kernel.UUID]order.Snapshot
	completed  map[kernel.UUID]completion
	parties    map[kernel.UUID]party.Party
	products   map[kernel.UUID]catalog.Product
	requests   map[kernel.UUID]map[kernel.UUID]registry.PendingRequest
	deliveries map[registry.DeliveryKey]deliveryRow
	seq        int64

	locks map[kernel.UUID]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore(clock kernel.Clock) *Store {
	return &Store{
		clock:      clock,
		orders:     make(map[kernel.UUID]order.Snapshot),
		completed:  make(map[kernel.UUID]completion),
		parties:    make(map[kernel.UUID]party.Party),
		products:   make(map[kernel.UUID]catalog.Product),
		requests:   make(map[kernel.UUID]map[kernel.UUID]registry.PendingRequest),
		deliveries: make(map[registry.DeliveryKey]deliveryRow),
		locks:      make(map[kernel.UUID]*orderLock),
	}
}

func (s *Store) lockOrder(id kernel.UUID) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &orderLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
}

func (s *Store) unlockOrder(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	l.mu.Unlock()
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork records an undo step for every write made inside Begin/Commit.
// Rollback replays them in reverse. Writes outside a transaction apply
// immediately and take no order locks.
type UnitOfWork struct {
	store      *Store
	active     bool
	journal    []func()
	savepoints map[string]int
	held       map[kernel.UUID]struct{}
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.journal = nil
	u.savepoints = make(map[string]int)
	u.held = make(map[kernel.UUID]struct{})
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.end()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.replay(0)
	u.end()
	return nil
}

func (u *UnitOfWork) Savepoint(_ context.Context, name string) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.savepoints[name] = len(u.journal)
	return nil
}

// RollbackTo keeps the savepoint, so it can be returned to again. Order
// locks taken since the savepoint stay held until the transaction ends.
func (u *UnitOfWork) RollbackTo(_ context.Context, name string) error {
	if !u.active {
		return ErrNoTransaction
	}
	mark, ok := u.savepoints[name]
	if !ok {
		return fmt.Errorf("memory: savepoint %q does not exist", name)
	}
	u.replay(mark)
	return nil
}

func (u *UnitOfWork) replay(mark int) {
	u.store.mu.Lock()
	for i := len(u.journal) - 1; i >= mark; i-- {
		u.journal[i]()
	}
	u.store.mu.Unlock()
	u.journal = u.journal[:mark]
}

func (u *UnitOfWork) end() {
	for id := range u.held {
		u.store.unlockOrder(id)
	}
	u.active = false
	u.journal = nil
	u.savepoints = nil
	u.held = nil
}

// hold takes the lock on an order for the rest of the transaction. It must
// be called without the store lock held.
func (u *UnitOfWork) hold(id kernel.UUID) {
	if !u.active {
		return
	}
	if _, ok := u.held[id]; ok {
		return
	}
	u.store.lockOrder(id)
	u.held[id] = struct{}{}
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) QueueRepository() ports.QueueRepository {
	return &QueueRepository{uow: u}
}

func (u *UnitOfWork) PartyDirectory() ports.PartyDirectory {
	return &PartyDirectory{uow: u}
}

func (u *UnitOfWork) ProductCatalog() ports.ProductCatalog {
	return &ProductCatalog{uow: u}
}

// undo must be called with the store lock held.
func (u *UnitOfWork) undo(step func()) {
	if u.active {
		u.journal = append(u.journal, step)
	}
}
