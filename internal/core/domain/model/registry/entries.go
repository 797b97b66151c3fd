package registry

import (
	"time"

	"custody/internal/core/domain/model/kernel"
)

type PendingRequest struct {
	CoordinatorID kernel.UUID
	OrderID       kernel.UUID
	RequestedAt   time.Time
}

type PendingDelivery struct {
	PartyID  kernel.UUID
	OrderID  kernel.UUID
	Received bool
	Given    bool
}

// Key identifies the entry within a party's queue.
func (d PendingDelivery) Key() DeliveryKey {
	return DeliveryKey{PartyID: d.PartyID, OrderID: d.OrderID}
}

type DeliveryKey struct {
	PartyID kernel.UUID
	OrderID kernel.UUID
}
