package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"custody/cmd"
	custodyhttp "custody/internal/adapters/in/http"
	"custody/internal/adapters/out/postgres"
	"custody/internal/core/application/anchoring"
	"custody/internal/core/application/usecases/commands"
	"custody/internal/jobs"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	configs := getConfigs()
	logger := newLogger(configs.LogLevel)

	var gormDB *gorm.DB
	if configs.Storage != cmd.StorageMemory {
		gormDB = mustOpenDatabase(configs)
	}

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(app, configs, logger)
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	anchorDefaults := anchoring.DefaultConfig()
	config := cmd.Config{
		HTTPPort:   envString("HTTP_PORT", "8080"),
		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envString("DB_PORT", "5432"),
		DBUser:     envString("DB_USER", ""),
		DBPassword: envString("DB_PASSWORD", ""),
		DBName:     envString("DB_NAME", ""),
		DBSslMode:  envString("DB_SSLMODE", "disable"),
		Storage:    envString("STORAGE", cmd.StoragePostgres),

		JWTSigningKey: envString("JWT_SIGNING_KEY", ""),
		JWTIssuer:     envString("JWT_ISSUER", ""),

		AnchorURL:         envString("ANCHOR_URL", "https://api.pinata.cloud"),
		AnchorJWT:         envString("ANCHOR_JWT", ""),
		AnchorTimeout:     envDuration("ANCHOR_TIMEOUT", anchorDefaults.Timeout),
		AnchorMaxAttempts: envUint("ANCHOR_MAX_ATTEMPTS", anchorDefaults.MaxAttempts),

		OrderConflictRetries:        envUint("ORDER_CONFLICT_RETRIES", commands.DefaultConflictRetries),
		RequireVerifiedTransferCode: envBool("REQUIRE_VERIFIED_TRANSFER_CODE", true),
		ReconcileSchedule:           envString("RECONCILE_SCHEDULE", jobs.DefaultReconcileSchedule),
		ReconcileBatchSize:          int(envUint("RECONCILE_BATCH_SIZE", 100)),
		ReconcileParallelism:        int(envUint("RECONCILE_PARALLELISM", 4)),

		LogLevel: envString("LOG_LEVEL", "info"),
	}
	if config.JWTSigningKey == "" {
		log.Fatalf("JWT_SIGNING_KEY is required")
	}
	return config
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return d
}

func envUint(key string, fallback uint64) uint64 {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return n
}

func envBool(key string, fallback bool) bool {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return b
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func mustOpenDatabase(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err = postgres.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

func startWebServer(app *cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) {
	e := echo.New()
	e.HideBanner = true
	e.Use(custodyhttp.RequestLogger(logger))

	server := custodyhttp.NewServer(custodyhttp.Handlers{
		PlaceOrder:            app.CreatePlaceOrderCommandHandler(),
		BuildCustodyChain:     app.CreateBuildCustodyChainCommandHandler(),
		AdvanceCustody:        app.CreateAdvanceCustodyCommandHandler(),
		GenerateTransferCode:  app.CreateGenerateTransferCodeCommandHandler(),
		VerifyTransferCode:    app.CreateVerifyTransferCodeCommandHandler(),
		RegisterParty:         app.CreateRegisterPartyCommandHandler(),
		AddProduct:            app.CreateAddProductCommandHandler(),
		GetOrder:              app.CreateGetOrderQueryHandler(),
		GetCustodyChain:       app.CreateGetCustodyChainQueryHandler(),
		GetTransferAudit:      app.CreateGetTransferAuditQueryHandler(),
		ListPendingRequests:   app.CreateListPendingRequestsQueryHandler(),
		ListPendingDeliveries: app.CreateListPendingDeliveriesQueryHandler(),
		ListMiddlemen:         app.CreateListMiddlemenQueryHandler(),
	}, logger)
	server.RegisterRoutes(e, custodyhttp.NewTokenVerifier(configs.JWTSigningKey, configs.JWTIssuer))
	custodyhttp.RegisterOperationalRoutes(e, app.Gatherer())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}
