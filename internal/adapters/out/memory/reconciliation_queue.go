package memory

import (
	"context"
	"sync"

	"custody/internal/core/domain/model/kernel"
)

// ReconciliationQueue is a FIFO of distinct order ids.
type ReconciliationQueue struct {
	mu     sync.Mutex
	ids    []kernel.UUID
	queued map[kernel.UUID]struct{}
}

func NewReconciliationQueue() *ReconciliationQueue {
	return &ReconciliationQueue{queued: make(map[kernel.UUID]struct{})}
}

func (q *ReconciliationQueue) Enqueue(_ context.Context, orderID kernel.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.queued[orderID]; ok {
		return nil
	}
	q.queued[orderID] = struct{}{}
	q.ids = append(q.ids, orderID)
	return nil
}

func (q *ReconciliationQueue) Drain(_ context.Context, limit int) ([]kernel.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if limit <= 0 || limit > len(q.ids) {
		limit = len(q.ids)
	}
	out := make([]kernel.UUID, limit)
	copy(out, q.ids[:limit])
	q.ids = q.ids[limit:]
	for _, id := range out {
		delete(q.queued, id)
	}
	return out, nil
}

func (q *ReconciliationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
