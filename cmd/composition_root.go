package cmd

import (
	"fmt"
	"log/slog"

	"custody/internal/adapters/out/memory"
	"custody/internal/adapters/out/pinata"
	"custody/internal/adapters/out/postgres"
	"custody/internal/adapters/out/postgres/queuerepo"
	"custody/internal/core/application/anchoring"
	"custody/internal/core/application/usecases/commands"
	"custody/internal/core/application/usecases/queries"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/ports"
	"custody/internal/jobs"
	"custody/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use cases. One instance per process.
type CompositionRoot struct {
	config         Config
	logger         *slog.Logger
	clock          kernel.Clock
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	uowFactory     ports.UnitOfWorkFactory
	reconciliation ports.ReconciliationQueue
	anchorer       *anchoring.Anchorer
}

// NewCompositionRoot selects the storage backend. gormDB is ignored when
// config.Storage is memory.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)
	clock := kernel.SystemClock{}

	c := &CompositionRoot{
		config:   config,
		logger:   logger,
		clock:    clock,
		registry: registry,
		metrics:  m,
	}

	switch config.Storage {
	case StorageMemory:
		store := memory.NewStore(clock)
		c.uowFactory = memory.NewUnitOfWorkFactory(store)
		c.reconciliation = memory.NewReconciliationQueue()
	case StoragePostgres, "":
		if gormDB == nil {
			return nil, fmt.Errorf("storage %q needs a database connection", StoragePostgres)
		}
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB, clock)
		c.reconciliation = queuerepo.NewGormReconciliationQueue(gormDB, clock)
	default:
		return nil, fmt.Errorf("unknown storage %q", config.Storage)
	}

	c.anchorer = anchoring.NewAnchorer(
		pinata.New(config.AnchorURL, config.AnchorJWT),
		anchoring.Config{
			Timeout:         config.AnchorTimeout,
			MaxAttempts:     config.AnchorMaxAttempts,
			InitialInterval: anchoring.DefaultConfig().InitialInterval,
		},
		m,
		logger,
	)
	return c, nil
}

// Gatherer serves /metrics.
func (c *CompositionRoot) Gatherer() prometheus.Gatherer {
	return c.registry
}

func (c *CompositionRoot) commandUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) retrier() commands.RevisionRetrier {
	return commands.NewRevisionRetrier(c.config.OrderConflictRetries, c.metrics, c.logger)
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(c.commandUoWFactory(), c.reconciliation, c.clock, c.logger)
}

func (c *CompositionRoot) CreateBuildCustodyChainCommandHandler() commands.BuildCustodyChainCommandHandler {
	return commands.NewBuildCustodyChainCommandHandler(
		c.commandUoWFactory(), c.anchorer, c.reconciliation, c.retrier(), c.logger)
}

func (c *CompositionRoot) CreateAdvanceCustodyCommandHandler() commands.AdvanceCustodyCommandHandler {
	return commands.NewAdvanceCustodyCommandHandler(
		c.commandUoWFactory(), c.anchorer, c.reconciliation, c.retrier(),
		c.config.RequireVerifiedTransferCode, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGenerateTransferCodeCommandHandler() commands.GenerateTransferCodeCommandHandler {
	return commands.NewGenerateTransferCodeCommandHandler(c.commandUoWFactory(), c.retrier(), c.clock, c.logger)
}

func (c *CompositionRoot) CreateVerifyTransferCodeCommandHandler() commands.VerifyTransferCodeCommandHandler {
	return commands.NewVerifyTransferCodeCommandHandler(c.commandUoWFactory(), c.retrier(), c.clock, c.logger)
}

func (c *CompositionRoot) CreateRegisterPartyCommandHandler() commands.RegisterPartyCommandHandler {
	return commands.NewRegisterPartyCommandHandler(c.commandUoWFactory(), c.logger)
}

func (c *CompositionRoot) CreateAddProductCommandHandler() commands.AddProductCommandHandler {
	return commands.NewAddProductCommandHandler(c.commandUoWFactory(), c.logger)
}

func (c *CompositionRoot) CreateReconcileProjectionsCommandHandler() commands.ReconcileProjectionsCommandHandler {
	return commands.NewReconcileProjectionsCommandHandler(
		c.commandUoWFactory(), c.reconciliation, c.clock, c.config.ReconcileParallelism, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetCustodyChainQueryHandler() queries.GetCustodyChainQueryHandler {
	return queries.NewGetCustodyChainQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetTransferAuditQueryHandler() queries.GetTransferAuditQueryHandler {
	return queries.NewGetTransferAuditQueryHandler(c.uowFactory, c.clock)
}

func (c *CompositionRoot) CreateListPendingRequestsQueryHandler() queries.ListPendingRequestsQueryHandler {
	return queries.NewListPendingRequestsQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateListPendingDeliveriesQueryHandler() queries.ListPendingDeliveriesQueryHandler {
	return queries.NewListPendingDeliveriesQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateListMiddlemenQueryHandler() queries.ListMiddlemenQueryHandler {
	return queries.NewListMiddlemenQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	handler := c.CreateReconcileProjectionsCommandHandler()
	return jobs.NewJobManager(&handler, c.config.ReconcileSchedule, c.config.ReconcileBatchSize, c.logger)
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
