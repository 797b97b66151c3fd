package cmd_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"custody/cmd"
	"custody/internal/core/application/usecases/commands"
	"custody/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() cmd.Config {
	return cmd.Config{
		Storage:                     cmd.StorageMemory,
		AnchorURL:                   "http://127.0.0.1:1",
		AnchorTimeout:               time.Second,
		AnchorMaxAttempts:           1,
		OrderConflictRetries:        commands.DefaultConflictRetries,
		RequireVerifiedTransferCode: true,
		ReconcileSchedule:           "@every 1h",
		ReconcileBatchSize:          10,
		ReconcileParallelism:        2,
	}
}

func TestNewCompositionRoot_Storage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := cmd.NewCompositionRoot(memoryConfig(), nil, logger)
	require.NoError(t, err)

	cfg := memoryConfig()
	cfg.Storage = cmd.StoragePostgres
	_, err = cmd.NewCompositionRoot(cfg, nil, logger)
	require.Error(t, err)

	cfg.Storage = "mongo"
	_, err = cmd.NewCompositionRoot(cfg, nil, logger)
	require.Error(t, err)
}

func TestCompositionRoot_WiresMemoryStorage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := cmd.NewCompositionRoot(memoryConfig(), nil, logger)
	require.NoError(t, err)

	coordinator, err := kernel.NewCaller(kernel.NewUUID(), kernel.RoleCoordinatorAdmin)
	require.NoError(t, err)
	seller, err := kernel.NewCaller(kernel.NewUUID(), kernel.RoleSeller)
	require.NoError(t, err)
	buyer, err := kernel.NewCaller(kernel.NewUUID(), kernel.RoleBuyer)
	require.NoError(t, err)

	register := app.CreateRegisterPartyCommandHandler()
	for name, caller := range map[string]kernel.Caller{"Cora": coordinator, "Sam": seller, "Bea": buyer} {
		registerCmd, cmdErr := commands.NewRegisterPartyCommand(caller, name)
		require.NoError(t, cmdErr)
		_, err = register.Handle(t.Context(), registerCmd)
		require.NoError(t, err)
	}

	addProduct := app.CreateAddProductCommandHandler()
	productCmd, err := commands.NewAddProductCommand(seller, kernel.NewUUID(), "Tea chest", coordinator.ID())
	require.NoError(t, err)
	product, err := addProduct.Handle(t.Context(), productCmd)
	require.NoError(t, err)

	place := app.CreatePlaceOrderCommandHandler()
	orderCmd, err := commands.NewPlaceOrderCommand(buyer, kernel.NewUUID(), product.ID(), 1)
	require.NoError(t, err)
	_, err = place.Handle(t.Context(), orderCmd)
	require.NoError(t, err)

	jobManager := app.CreateJobManager()
	require.NoError(t, jobManager.StartAll())
	jobManager.StopAll()

	families, err := app.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
