// Package queuerepo persists the per-party projections of the order registry
// and the reconciliation queue.
package queuerepo

import (
	"time"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/registry"

	"github.com/google/uuid"
)

// PendingRequestDTO is one order waiting in a coordinator's queue.
type PendingRequestDTO struct {
	CoordinatorID uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	RequestedAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (PendingRequestDTO) TableName() string {
	return "pending_requests"
}

// PendingDeliveryDTO mirrors one hop of an in-transit order. ID keeps the
// insertion order stable across upserts.
type PendingDeliveryDTO struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	PartyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pending_delivery_party_order"`
	OrderID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pending_delivery_party_order;index"`
	Received bool      `gorm:"not null"`
	Given    bool      `gorm:"not null"`
}

func (PendingDeliveryDTO) TableName() string {
	return "pending_deliveries"
}

// ReconciliationDTO is an order whose projections may be stale.
type ReconciliationDTO struct {
	OrderID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	EnqueuedAt time.Time `gorm:"type:timestamptz;not null;index"`
}

func (ReconciliationDTO) TableName() string {
	return "reconciliation_queue"
}

func requestFromDomain(r registry.PendingRequest) PendingRequestDTO {
	return PendingRequestDTO{
		CoordinatorID: r.CoordinatorID.Bytes(),
		OrderID:       r.OrderID.Bytes(),
		RequestedAt:   r.RequestedAt,
	}
}

func requestToDomain(dto PendingRequestDTO) (registry.PendingRequest, error) {
	coordinatorID, err := kernel.UUIDFromBytes(dto.CoordinatorID[:])
	if err != nil {
		return registry.PendingRequest{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return registry.PendingRequest{}, err
	}
	return registry.PendingRequest{
		CoordinatorID: coordinatorID,
		OrderID:       orderID,
		RequestedAt:   dto.RequestedAt.UTC(),
	}, nil
}

func deliveryFromDomain(e registry.PendingDelivery) PendingDeliveryDTO {
	return PendingDeliveryDTO{
		PartyID:  e.PartyID.Bytes(),
		OrderID:  e.OrderID.Bytes(),
		Received: e.Received,
		Given:    e.Given,
	}
}

func deliveryToDomain(dto PendingDeliveryDTO) (registry.PendingDelivery, error) {
	partyID, err := kernel.UUIDFromBytes(dto.PartyID[:])
	if err != nil {
		return registry.PendingDelivery{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return registry.PendingDelivery{}, err
	}
	return registry.PendingDelivery{
		PartyID:  partyID,
		OrderID:  orderID,
		Received: dto.Received,
		Given:    dto.Given,
	}, nil
}
