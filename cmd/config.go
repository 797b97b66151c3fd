package cmd

import "time"

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	// Storage is "postgres" or "memory".
	Storage string

	JWTSigningKey string
	JWTIssuer     string

	AnchorURL         string
	AnchorJWT         string
	AnchorTimeout     time.Duration
	AnchorMaxAttempts uint64

	OrderConflictRetries        uint64
	RequireVerifiedTransferCode bool
	ReconcileSchedule           string
	ReconcileBatchSize          int
	ReconcileParallelism        int

	LogLevel string
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)
