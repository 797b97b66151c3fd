package jobs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultReconcileSchedule runs every five seconds (cron with seconds field).
const DefaultReconcileSchedule = "*/5 * * * * *"

// BatchReconciler drains queued orders and rebuilds their projections.
type BatchReconciler interface {
	HandleBatch(ctx context.Context, limit int) (int, error)
}

// ReconciliationJob repairs pending request and pending delivery entries
// whose post-commit update failed.
type ReconciliationJob struct {
	reconciler BatchReconciler
	schedule   string
	batchSize  int
	cron       *cron.Cron
	logger     *slog.Logger

	// running prevents overlapping passes when one outlasts the interval.
	running sync.Mutex
}

func NewReconciliationJob(reconciler BatchReconciler, schedule string, batchSize int, logger *slog.Logger) *ReconciliationJob {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &ReconciliationJob{
		reconciler: reconciler,
		schedule:   schedule,
		batchSize:  batchSize,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "reconciliation_job"),
	}
}

// Start registers the pass on the schedule and starts the scheduler.
func (j *ReconciliationJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Reconciliation job started", "schedule", j.schedule)
	return nil
}

// Run performs one pass. It is skipped while a previous pass is still going.
func (j *ReconciliationJob) Run(ctx context.Context) {
	if !j.running.TryLock() {
		j.logger.DebugContext(ctx, "Reconciliation pass still running, skipping")
		return
	}
	defer j.running.Unlock()

	n, err := j.reconciler.HandleBatch(ctx, j.batchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Reconciliation job failed", "error", err, "reconciled", n)
		return
	}
	if n > 0 {
		j.logger.InfoContext(ctx, "Projections reconciled", "reconciled", n)
	}
}

// Stop stops the scheduler and waits for a running pass to finish.
func (j *ReconciliationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Reconciliation job stopped")
}
