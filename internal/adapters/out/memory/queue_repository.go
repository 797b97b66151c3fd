package memory

import (
	"context"
	"slices"
	"strings"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/registry"
)

type QueueRepository struct {
	uow *UnitOfWork
}

func (r *QueueRepository) AddPendingRequest(_ context.Context, request registry.PendingRequest) error {
	r.uow.hold(request.OrderID)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	byOrder, ok := s.requests[request.CoordinatorID]
	if !ok {
		byOrder = make(map[kernel.UUID]registry.PendingRequest)
		s.requests[request.CoordinatorID] = byOrder
	}
	if _, exists := byOrder[request.OrderID]; exists {
		return nil
	}
	byOrder[request.OrderID] = request
	r.uow.undo(func() { delete(byOrder, request.OrderID) })
	return nil
}

func (r *QueueRepository) RemovePendingRequest(_ context.Context, coordinatorID, orderID kernel.UUID) error {
	r.uow.hold(orderID)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeRequest(r.uow, coordinatorID, orderID)
	return nil
}

func (r *QueueRepository) HasPendingRequest(_ context.Context, coordinatorID, orderID kernel.UUID) (bool, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.requests[coordinatorID][orderID]
	return ok, nil
}

func (r *QueueRepository) ListPendingRequests(_ context.Context, coordinatorID kernel.UUID) ([]registry.PendingRequest, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]registry.PendingRequest, 0, len(s.requests[coordinatorID]))
	for _, request := range s.requests[coordinatorID] {
		out = append(out, request)
	}
	slices.SortFunc(out, func(a, b registry.PendingRequest) int {
		if c := a.RequestedAt.Compare(b.RequestedAt); c != 0 {
			return c
		}
		return strings.Compare(a.OrderID.String(), b.OrderID.String())
	})
	return out, nil
}

func (r *QueueRepository) SavePendingDeliveries(_ context.Context, entries []registry.PendingDelivery) error {
	for _, entry := range entries {
		r.uow.hold(entry.OrderID)
	}
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		s.putDelivery(r.uow, entry)
	}
	return nil
}

func (r *QueueRepository) ReplacePendingDeliveries(
	_ context.Context,
	orderID kernel.UUID,
	entries []registry.PendingDelivery,
) error {
	r.uow.hold(orderID)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[registry.DeliveryKey]struct{}, len(entries))
	for _, entry := range entries {
		keep[entry.Key()] = struct{}{}
	}
	for key := range s.deliveries {
		if _, ok := keep[key]; key.OrderID == orderID && !ok {
			s.deleteDelivery(r.uow, key)
		}
	}
	for _, entry := range entries {
		s.putDelivery(r.uow, entry)
	}
	return nil
}

func (r *QueueRepository) ListPendingDeliveries(_ context.Context, partyID kernel.UUID) ([]registry.PendingDelivery, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]deliveryRow, 0)
	for key, row := range s.deliveries {
		if key.PartyID == partyID {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b deliveryRow) int {
		return int(a.seq - b.seq)
	})

	out := make([]registry.PendingDelivery, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry)
	}
	return out, nil
}

func (r *QueueRepository) PurgeOrder(_ context.Context, orderID kernel.UUID) error {
	r.uow.hold(orderID)
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for coordinatorID := range s.requests {
		s.removeRequest(r.uow, coordinatorID, orderID)
	}
	for key := range s.deliveries {
		if key.OrderID == orderID {
			s.deleteDelivery(r.uow, key)
		}
	}
	return nil
}

func (s *Store) removeRequest(uow *UnitOfWork, coordinatorID, orderID kernel.UUID) {
	byOrder := s.requests[coordinatorID]
	previous, ok := byOrder[orderID]
	if !ok {
		return
	}
	delete(byOrder, orderID)
	uow.undo(func() { byOrder[orderID] = previous })
}

// putDelivery keeps the original position of an existing entry.
func (s *Store) putDelivery(uow *UnitOfWork, entry registry.PendingDelivery) {
	key := entry.Key()
	previous, existed := s.deliveries[key]
	row := deliveryRow{entry: entry, seq: previous.seq}
	if !existed {
		s.seq++
		row.seq = s.seq
	}
	s.deliveries[key] = row
	uow.undo(func() {
		if existed {
			s.deliveries[key] = previous
		} else {
			delete(s.deliveries, key)
		}
	})
}

func (s *Store) deleteDelivery(uow *UnitOfWork, key registry.DeliveryKey) {
	previous := s.deliveries[key]
	delete(s.deliveries, key)
	uow.undo(func() { s.deliveries[key] = previous })
}
