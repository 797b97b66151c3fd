// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The custody chain lives in order_hops; the outstanding transfer code is
// embedded with nullable columns.
type OrderDTO struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        int             `gorm:"type:int;not null"`
	BuyerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CoordinatorID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	CurrentHolderID uuid.UUID       `gorm:"type:uuid;not null"`
	WorkflowStatus  int             `gorm:"type:smallint;not null"`
	DeliveryStatus  int             `gorm:"type:smallint;not null"`
	TransferCode    TransferCodeDTO `gorm:"embedded;embeddedPrefix:transfer_code_"`
	AnchorID        string          `gorm:"type:varchar(255);not null;default:''"`
	Revision        int64           `gorm:"type:bigint;not null"`
	Hops            []HopDTO        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// TransferCodeDTO is empty (Code == nil) when no code is outstanding.
type TransferCodeDTO struct {
	Code      *string    `gorm:"type:varchar(6)"`
	IssuedAt  *time.Time `gorm:"type:timestamptz"`
	TargetHop *int       `gorm:"type:int"`
	Verified  bool       `gorm:"not null;default:false"`
}

// HopDTO is one position of an order's custody chain.
type HopDTO struct {
	OrderID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"type:int;primaryKey"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Received bool      `gorm:"not null"`
	Given    bool      `gorm:"not null"`
}

func (HopDTO) TableName() string {
	return "order_hops"
}

// CompletedOrderDTO is the tombstone left behind by a delivered order.
type CompletedOrderDTO struct {
	OrderID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompletedAt time.Time `gorm:"type:timestamptz;not null"`
	AnchorID    string    `gorm:"type:varchar(255);not null;default:''"`
}

func (CompletedOrderDTO) TableName() string {
	return "completed_orders"
}

// fromDomain converts an order aggregate to its database representation.
// Revision is left as loaded; the repository decides what to store.
func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()
	id := s.ID.Bytes()

	hops := make([]HopDTO, 0, len(s.Track))
	for i, h := range s.Track {
		hops = append(hops, HopDTO{
			OrderID:  id,
			Position: i,
			OwnerID:  h.Owner().Bytes(),
			Received: h.Received(),
			Given:    h.Given(),
		})
	}

	var code TransferCodeDTO
	if s.TransferCode != nil {
		digits := s.TransferCode.Code()
		issuedAt := s.TransferCode.IssuedAt()
		target := s.TransferCode.TargetHop()
		code = TransferCodeDTO{
			Code:      &digits,
			IssuedAt:  &issuedAt,
			TargetHop: &target,
			Verified:  s.TransferCode.IsVerified(),
		}
	}

	return OrderDTO{
		ID:              id,
		ProductID:       s.ProductID.Bytes(),
		Quantity:        s.Quantity,
		BuyerID:         s.Buyer.Bytes(),
		SellerID:        s.Seller.Bytes(),
		CoordinatorID:   s.Coordinator.Bytes(),
		CurrentHolderID: s.CurrentHolder.Bytes(),
		WorkflowStatus:  int(s.Workflow),
		DeliveryStatus:  int(s.Delivery),
		TransferCode:    code,
		AnchorID:        s.AnchorID,
		Revision:        s.Revision,
		Hops:            hops,
	}
}

// toDomain converts a database DTO to an order aggregate using RestoreOrder.
// Hops must be sorted by position.
func toDomain(dto OrderDTO) (*order.Order, error) {
	ids := make([]kernel.UUID, 0, 6)
	for _, raw := range []uuid.UUID{
		dto.ID, dto.ProductID, dto.BuyerID, dto.SellerID, dto.CoordinatorID, dto.CurrentHolderID,
	} {
		id, err := kernel.UUIDFromBytes(raw[:])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	track := make([]order.Hop, 0, len(dto.Hops))
	for _, h := range dto.Hops {
		owner, err := kernel.UUIDFromBytes(h.OwnerID[:])
		if err != nil {
			return nil, err
		}
		hop, err := order.NewHop(owner, h.Received, h.Given)
		if err != nil {
			return nil, err
		}
		track = append(track, hop)
	}

	var code *order.TransferCode
	if c := dto.TransferCode; c.Code != nil && c.IssuedAt != nil && c.TargetHop != nil {
		restored, err := order.RestoreTransferCode(*c.Code, c.IssuedAt.UTC(), *c.TargetHop, c.Verified)
		if err != nil {
			return nil, err
		}
		code = &restored
	}

	return order.RestoreOrder(order.Snapshot{
		ID:            ids[0],
		ProductID:     ids[1],
		Quantity:      dto.Quantity,
		Buyer:         ids[2],
		Seller:        ids[3],
		Coordinator:   ids[4],
		CurrentHolder: ids[5],
		Track:         track,
		Workflow:      order.WorkflowStatus(dto.WorkflowStatus),
		Delivery:      order.DeliveryStatus(dto.DeliveryStatus),
		TransferCode:  code,
		AnchorID:      dto.AnchorID,
		Revision:      dto.Revision,
	})
}
