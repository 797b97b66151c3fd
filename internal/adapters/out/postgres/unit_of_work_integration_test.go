package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "custody/internal/adapters/out/postgres"
	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/party"
	"custody/internal/core/domain/model/registry"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite exercises the GORM unit of work and the
// directory repositories against a real PostgreSQL database.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db, kernel.SystemClock{})
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec(`TRUNCATE TABLE orders, order_hops, completed_orders, pending_requests,
		pending_deliveries, reconciliation_queue, parties, products CASCADE`).Error
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.Require().ErrorIs(uow.Commit(ctx), gorm.ErrInvalidTransaction)
	suite.Require().ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_CommitSpansRepositories() {
	ctx := context.Background()
	o := suite.newOrder()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.QueueRepository().AddPendingRequest(ctx, registry.PendingRequest{
		CoordinatorID: o.Coordinator(), OrderID: o.ID(), RequestedAt: time.Now().UTC(),
	}))

	got, err := uow.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err, "order is visible inside its own transaction")
	suite.Equal(o.ID(), got.ID())

	suite.Require().NoError(uow.Commit(ctx))

	fresh := suite.factory.Create()
	_, err = fresh.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	has, err := fresh.QueueRepository().HasPendingRequest(ctx, o.Coordinator(), o.ID())
	suite.Require().NoError(err)
	suite.True(has)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackDiscardsAllWrites() {
	ctx := context.Background()
	o := suite.newOrder()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.QueueRepository().SavePendingDeliveries(ctx, []registry.PendingDelivery{
		{PartyID: o.Seller(), OrderID: o.ID(), Received: true},
	}))
	suite.Require().NoError(uow.Rollback(ctx))

	fresh := suite.factory.Create()
	_, err := fresh.OrderRepository().Get(ctx, o.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	entries, err := fresh.QueueRepository().ListPendingDeliveries(ctx, o.Seller())
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackToSavepointKeepsEarlierWrites() {
	ctx := context.Background()
	o := suite.newOrder()
	uow := suite.factory.Create()

	suite.Require().ErrorIs(uow.Savepoint(ctx, "projections"), gorm.ErrInvalidTransaction)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.Savepoint(ctx, "projections"))
	suite.Require().NoError(uow.QueueRepository().AddPendingRequest(ctx, registry.PendingRequest{
		CoordinatorID: o.Coordinator(), OrderID: o.ID(), RequestedAt: time.Now().UTC(),
	}))
	suite.Require().NoError(uow.RollbackTo(ctx, "projections"))
	suite.Require().NoError(uow.Commit(ctx))

	fresh := suite.factory.Create()
	_, err := fresh.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	has, err := fresh.QueueRepository().HasPendingRequest(ctx, o.Coordinator(), o.ID())
	suite.Require().NoError(err)
	suite.False(has)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_GetForUpdateHoldsWriters() {
	ctx := context.Background()
	o := suite.newOrder()
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, o))

	holder := suite.factory.Create()
	suite.Require().NoError(holder.Begin(ctx))
	locked, err := holder.OrderRepository().GetForUpdate(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(int64(0), locked.Revision())

	done := make(chan error, 1)
	go func() {
		writer := suite.factory.Create()
		if err := writer.Begin(ctx); err != nil {
			done <- err
			return
		}
		defer func() {
			_ = writer.Rollback(ctx)
		}()
		loaded, err := writer.OrderRepository().Get(ctx, o.ID())
		if err == nil {
			err = loaded.BuildTrack(nil)
		}
		if err == nil {
			err = writer.OrderRepository().Update(ctx, loaded)
		}
		if err == nil {
			err = writer.Commit(ctx)
		}
		done <- err
	}()

	select {
	case err = <-done:
		suite.Failf("writer finished while the order was locked", "error: %v", err)
		_ = holder.Rollback(ctx)
		return
	case <-time.After(200 * time.Millisecond):
	}

	suite.Require().NoError(holder.Commit(ctx))
	suite.Require().NoError(<-done)

	stored, err := suite.factory.Create().OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(int64(1), stored.Revision())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDirectory_PartiesAndProducts() {
	ctx := context.Background()
	uow := suite.factory.Create()
	dir := uow.PartyDirectory()

	north, err := party.NewParty(kernel.NewUUID(), "Hub North", kernel.RoleMiddleman)
	suite.Require().NoError(err)
	east, err := party.NewParty(kernel.NewUUID(), "Hub East", kernel.RoleMiddleman)
	suite.Require().NoError(err)
	seller, err := party.NewParty(kernel.NewUUID(), "Sam", kernel.RoleSeller)
	suite.Require().NoError(err)
	for _, p := range []party.Party{north, east, seller} {
		suite.Require().NoError(dir.Save(ctx, p))
	}

	middlemen, err := dir.ListByRole(ctx, kernel.RoleMiddleman)
	suite.Require().NoError(err)
	suite.Require().Len(middlemen, 2)
	suite.Equal("Hub East", middlemen[0].Name())
	suite.Equal("Hub North", middlemen[1].Name())

	renamed, err := party.NewParty(north.ID(), "Hub North West", kernel.RoleMiddleman)
	suite.Require().NoError(err)
	suite.Require().NoError(dir.Save(ctx, renamed))
	got, err := dir.Get(ctx, north.ID())
	suite.Require().NoError(err)
	suite.Equal("Hub North West", got.Name())

	_, err = dir.Get(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	product, err := catalog.NewProduct(kernel.NewUUID(), "Tea chest", seller.ID(), kernel.NewUUID())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.ProductCatalog().Save(ctx, product))
	found, err := uow.ProductCatalog().FindProduct(ctx, product.ID())
	suite.Require().NoError(err)
	suite.Equal("Tea chest", found.Name())
	suite.True(found.Seller().IsEqual(seller.ID()))

	_, err = uow.ProductCatalog().FindProduct(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) newOrder() *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), 1, kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID())
	suite.Require().NoError(err)
	return o
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
