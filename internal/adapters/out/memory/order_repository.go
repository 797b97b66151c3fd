package memory

import (
	"context"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/pkg/errs"
)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.uow.hold(aggregate.ID())
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := aggregate.ID()
	if _, ok := s.orders[id]; ok {
		return errs.NewConflictError("order", "order "+id.String()+" already exists")
	}
	if _, ok := s.completed[id]; ok {
		return errs.NewTerminalStateError(id, "order already completed")
	}

	s.orders[id] = aggregate.Snapshot()
	r.uow.undo(func() { delete(s.orders, id) })
	return nil
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.uow.hold(aggregate.ID())
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := aggregate.ID()
	current, err := s.current(id, aggregate.Revision())
	if err != nil {
		return err
	}

	next := aggregate.Snapshot()
	next.Revision = current.Revision + 1
	next.AnchorID = current.AnchorID
	s.orders[id] = next
	r.uow.undo(func() { s.orders[id] = current })

	aggregate.MarkCommitted()
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.uow.hold(id)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.orders[id]
	if !ok {
		if _, done := s.completed[id]; done {
			return nil, errs.NewTerminalStateError(id, "order already completed")
		}
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(snapshot)
}

// GetForUpdate is Get: inside a transaction every read already locks the
// order.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *OrderRepository) Complete(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if !aggregate.IsDelivered() {
		return errs.NewConflictError("order", "only delivered orders can complete")
	}

	r.uow.hold(aggregate.ID())
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := aggregate.ID()
	current, err := s.current(id, aggregate.Revision())
	if err != nil {
		return err
	}

	delete(s.orders, id)
	s.completed[id] = completion{completedAt: s.clock.Now(), anchorID: current.AnchorID}
	r.uow.undo(func() {
		delete(s.completed, id)
		s.orders[id] = current
	})

	aggregate.MarkCommitted()
	return nil
}

func (r *OrderRepository) RecordAnchor(_ context.Context, id kernel.UUID, revision int64, anchorID string) (bool, error) {
	r.uow.hold(id)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok || current.Revision != revision {
		return false, nil
	}

	next := current
	next.AnchorID = anchorID
	s.orders[id] = next
	r.uow.undo(func() { s.orders[id] = current })
	return true, nil
}

func (r *OrderRepository) RecordCompletionAnchor(_ context.Context, id kernel.UUID, anchorID string) error {
	r.uow.hold(id)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.completed[id]
	if !ok {
		return errs.NewObjectNotFoundError("completed order", id.String())
	}

	next := current
	next.anchorID = anchorID
	s.completed[id] = next
	r.uow.undo(func() { s.completed[id] = current })
	return nil
}

// current returns the stored snapshot if it is still at revision.
// The store lock must be held.
func (s *Store) current(id kernel.UUID, revision int64) (order.Snapshot, error) {
	current, ok := s.orders[id]
	if !ok {
		if _, done := s.completed[id]; done {
			return order.Snapshot{}, errs.NewTerminalStateError(id, "order already completed")
		}
		return order.Snapshot{}, errs.NewObjectNotFoundError("order", id.String())
	}
	if current.Revision != revision {
		return order.Snapshot{}, errs.NewVersionIsInvalidError("order", revision)
	}
	return current, nil
}
