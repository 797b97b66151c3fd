package services

import (
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/registry"
)

// QueueProjector derives PendingDelivery entries from an order's track.
//
// Business rules:
//   - Every hop owner of an in-transit order has exactly one entry
//   - An entry's flags always equal the owner's hop flags
//   - A delivered order has no entries
//
// Example usage:
//
//	projector := services.NewQueueProjector()
//	entries := projector.At(o, transfer.From, transfer.To)
//	err := queue.SavePendingDeliveries(ctx, entries)
type QueueProjector struct{}

func NewQueueProjector() QueueProjector {
	return QueueProjector{}
}

// All returns one entry per hop, in custody order.
func (p QueueProjector) All(o *order.Order) []registry.PendingDelivery {
	if o.IsDelivered() {
		return nil
	}
	track := o.Track()
	entries := make([]registry.PendingDelivery, 0, len(track))
	for _, h := range track {
		entries = append(entries, entryFor(o, h))
	}
	return entries
}

// At returns the entries of the hops at the given indices. Out of range
// indices are skipped.
func (p QueueProjector) At(o *order.Order, indices ...int) []registry.PendingDelivery {
	if o.IsDelivered() {
		return nil
	}
	track := o.Track()
	entries := make([]registry.PendingDelivery, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(track) {
			continue
		}
		entries = append(entries, entryFor(o, track[i]))
	}
	return entries
}

func entryFor(o *order.Order, h order.Hop) registry.PendingDelivery {
	return registry.PendingDelivery{
		PartyID:  h.Owner(),
		OrderID:  o.ID(),
		Received: h.Received(),
		Given:    h.Given(),
	}
}
