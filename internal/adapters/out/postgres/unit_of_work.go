// Package postgres provides the GORM implementation of the Unit of Work
// pattern. Repositories handed out by a unit of work share its transaction
// once Begin was called and use the plain connection otherwise.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db, kernel.SystemClock{})
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	o, err := uow.OrderRepository().Get(ctx, orderID)
//	// ... mutate o
//	if err = uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Concurrency Considerations:
//   - Each UnitOfWork instance owns at most one transaction
//   - Multiple goroutines should use separate UnitOfWork instances
//   - Order writes are conditional on the loaded revision, so plain loads
//     hold no row locks between load and commit
//   - GetForUpdate locks the order row until the transaction ends
package postgres

import (
	"context"

	"custody/internal/adapters/out/postgres/directoryrepo"
	"custody/internal/adapters/out/postgres/orderrepo"
	"custody/internal/adapters/out/postgres/queuerepo"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
type GormUnitOfWorkFactory struct {
	db    *gorm.DB
	clock kernel.Clock
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
// The provided database connection will be used for all created unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db, kernel.SystemClock{})
func NewGormUnitOfWorkFactory(db *gorm.DB, clock kernel.Clock) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db, clock: clock}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db, clock: f.clock}
}

// GormUnitOfWork coordinates one database transaction across the order,
// projection and directory repositories.
type GormUnitOfWork struct {
	db    *gorm.DB
	tx    *gorm.DB
	clock kernel.Clock
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes all changes made within the current transaction.
// Returns gorm.ErrInvalidTransaction if no transaction is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards all changes made within the current transaction. After a
// successful Commit it returns gorm.ErrInvalidTransaction, which deferred
// rollbacks ignore.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// Savepoint requires an active transaction.
func (uow *GormUnitOfWork) Savepoint(_ context.Context, name string) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return uow.tx.SavePoint(name).Error
}

func (uow *GormUnitOfWork) RollbackTo(_ context.Context, name string) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return uow.tx.RollbackTo(name).Error
}

func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow.clock)
}

func (uow *GormUnitOfWork) QueueRepository() ports.QueueRepository {
	return queuerepo.NewGormQueueRepository(uow.conn())
}

func (uow *GormUnitOfWork) PartyDirectory() ports.PartyDirectory {
	return directoryrepo.NewGormPartyDirectory(uow.conn())
}

func (uow *GormUnitOfWork) ProductCatalog() ports.ProductCatalog {
	return directoryrepo.NewGormProductCatalog(uow.conn())
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// Migrate creates or updates every table the adapters use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.HopDTO{},
		&orderrepo.CompletedOrderDTO{},
		&queuerepo.PendingRequestDTO{},
		&queuerepo.PendingDeliveryDTO{},
		&queuerepo.ReconciliationDTO{},
		&directoryrepo.PartyDTO{},
		&directoryrepo.ProductDTO{},
	)
}
