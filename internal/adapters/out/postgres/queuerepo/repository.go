package queuerepo

import (
	"context"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/registry"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormQueueRepository implements ports.QueueRepository. All writes are
// idempotent so a reconciliation pass can replay them.
type GormQueueRepository struct {
	db *gorm.DB
}

func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

func (r *GormQueueRepository) AddPendingRequest(ctx context.Context, request registry.PendingRequest) error {
	dto := requestFromDomain(request)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto).Error
}

func (r *GormQueueRepository) RemovePendingRequest(ctx context.Context, coordinatorID, orderID kernel.UUID) error {
	return r.db.WithContext(ctx).
		Where("coordinator_id = ? AND order_id = ?", coordinatorID.Bytes(), orderID.Bytes()).
		Delete(&PendingRequestDTO{}).Error
}

func (r *GormQueueRepository) HasPendingRequest(ctx context.Context, coordinatorID, orderID kernel.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PendingRequestDTO{}).
		Where("coordinator_id = ? AND order_id = ?", coordinatorID.Bytes(), orderID.Bytes()).
		Count(&count).Error
	return count > 0, err
}

func (r *GormQueueRepository) ListPendingRequests(ctx context.Context, coordinatorID kernel.UUID) ([]registry.PendingRequest, error) {
	var dtos []PendingRequestDTO
	if err := r.db.WithContext(ctx).
		Where("coordinator_id = ?", coordinatorID.Bytes()).
		Order("requested_at, order_id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]registry.PendingRequest, 0, len(dtos))
	for _, dto := range dtos {
		req, err := requestToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// SavePendingDeliveries upserts by (party, order) keeping the original row id.
func (r *GormQueueRepository) SavePendingDeliveries(ctx context.Context, entries []registry.PendingDelivery) error {
	if len(entries) == 0 {
		return nil
	}
	dtos := make([]PendingDeliveryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, deliveryFromDomain(e))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "party_id"}, {Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"received", "given"}),
		}).
		Create(&dtos).Error
}

func (r *GormQueueRepository) ReplacePendingDeliveries(
	ctx context.Context,
	orderID kernel.UUID,
	entries []registry.PendingDelivery,
) error {
	db := r.db.WithContext(ctx).Where("order_id = ?", orderID.Bytes())
	if len(entries) > 0 {
		keep := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			keep = append(keep, e.PartyID.Bytes())
		}
		db = db.Where("party_id NOT IN ?", keep)
	}
	if err := db.Delete(&PendingDeliveryDTO{}).Error; err != nil {
		return err
	}
	return r.SavePendingDeliveries(ctx, entries)
}

func (r *GormQueueRepository) ListPendingDeliveries(ctx context.Context, partyID kernel.UUID) ([]registry.PendingDelivery, error) {
	var dtos []PendingDeliveryDTO
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID.Bytes()).
		Order("id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]registry.PendingDelivery, 0, len(dtos))
	for _, dto := range dtos {
		e, err := deliveryToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *GormQueueRepository) PurgeOrder(ctx context.Context, orderID kernel.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID.Bytes()).Delete(&PendingRequestDTO{}).Error; err != nil {
		return err
	}
	return db.Where("order_id = ?", orderID.Bytes()).Delete(&PendingDeliveryDTO{}).Error
}
