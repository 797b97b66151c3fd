package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	reconciliationJob *ReconciliationJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(reconciler BatchReconciler, schedule string, batchSize int, logger *slog.Logger) *JobManager {
	return &JobManager{
		reconciliationJob: NewReconciliationJob(reconciler, schedule, batchSize, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.reconciliationJob.Start(); err != nil {
		return fmt.Errorf("failed to start reconciliation job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.reconciliationJob.Stop()
}
