package orderrepo

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM. Every write
// is conditional on the revision the aggregate was loaded with.
type GormOrderRepository struct {
	db    *gorm.DB
	clock kernel.Clock
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, clock kernel.Clock) *GormOrderRepository {
	return &GormOrderRepository{
		db:    db,
		clock: clock,
	}
}

// Add saves a new order at revision 0.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	if done, err := r.isCompleted(ctx, id); err != nil {
		return err
	} else if done {
		return errs.NewTerminalStateError(id, "order already completed")
	}

	dto := fromDomain(aggregate)
	dto.Revision = 0
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("order", "order "+id.String()+" already exists", err)
		}
		return err
	}
	return nil
}

// Update stores the aggregate if the row is still at the loaded revision and
// bumps the revision. The anchor id column is left untouched.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Revision = aggregate.Revision() + 1
	db := r.db.WithContext(ctx)

	result := db.Model(&OrderDTO{}).
		Where("id = ? AND revision = ?", dto.ID, aggregate.Revision()).
		Select("*").
		Omit("id", "anchor_id", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.writeConflict(ctx, aggregate)
	}

	if err := db.Where("order_id = ?", dto.ID).Delete(&HopDTO{}).Error; err != nil {
		return err
	}
	if len(dto.Hops) > 0 {
		if err := db.Create(&dto.Hops).Error; err != nil {
			return err
		}
	}

	aggregate.MarkCommitted()
	return nil
}

// Get retrieves an order by ID. A completed order yields
// errs.TerminalStateError.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Hops", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.missing(ctx, id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetForUpdate takes the row lock on the order before loading it, so
// concurrent writers wait for the surrounding transaction. Outside a
// transaction the lock is released as soon as the statement finishes.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var locked OrderDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&locked, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.missing(ctx, id)
		}
		return nil, err
	}

	return r.Get(ctx, id)
}

// Complete deletes a delivered order and leaves a completed_orders
// tombstone carrying the last recorded anchor id.
func (r *GormOrderRepository) Complete(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if !aggregate.IsDelivered() {
		return errs.NewConflictError("order", "only delivered orders can complete")
	}

	id := aggregate.ID().Bytes()
	db := r.db.WithContext(ctx)

	result := db.Exec(`
		INSERT INTO completed_orders (order_id, completed_at, anchor_id)
		SELECT id, ?, anchor_id
		FROM orders
		WHERE id = ? AND revision = ?
	`, r.clock.Now(), id, aggregate.Revision())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.writeConflict(ctx, aggregate)
	}

	if err := db.Where("order_id = ?", id).Delete(&HopDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&OrderDTO{}).Error; err != nil {
		return err
	}

	aggregate.MarkCommitted()
	return nil
}

// RecordAnchor stores anchorID only while the order is still at revision.
// It reports false when a later revision superseded it.
func (r *GormOrderRepository) RecordAnchor(ctx context.Context, id kernel.UUID, revision int64, anchorID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND revision = ?", id.Bytes(), revision).
		Update("anchor_id", anchorID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormOrderRepository) RecordCompletionAnchor(ctx context.Context, id kernel.UUID, anchorID string) error {
	result := r.db.WithContext(ctx).Model(&CompletedOrderDTO{}).
		Where("order_id = ?", id.Bytes()).
		Update("anchor_id", anchorID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("completed order", id.String())
	}
	return nil
}

// writeConflict explains why a conditional write touched no row.
func (r *GormOrderRepository) writeConflict(ctx context.Context, aggregate *order.Order) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ?", aggregate.ID().Bytes()).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errs.NewVersionIsInvalidError("order", aggregate.Revision())
	}
	return r.missing(ctx, aggregate.ID())
}

func (r *GormOrderRepository) missing(ctx context.Context, id kernel.UUID) error {
	done, err := r.isCompleted(ctx, id)
	if err != nil {
		return err
	}
	if done {
		return errs.NewTerminalStateError(id, "order already completed")
	}
	return errs.NewObjectNotFoundError("order", id.String())
}

func (r *GormOrderRepository) isCompleted(ctx context.Context, id kernel.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&CompletedOrderDTO{}).
		Where("order_id = ?", id.Bytes()).
		Count(&count).Error
	return count > 0, err
}
