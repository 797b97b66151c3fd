package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custody/internal/pkg/errs"
	"custody/internal/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
)

// DefaultConflictRetries is how many times a command reloads an order after
// losing a revision race.
const DefaultConflictRetries = 3

// RevisionRetrier reruns a whole load, mutate, commit cycle when the commit
// lost a revision race. Any other error stops it immediately.
type RevisionRetrier struct {
	maxRetries uint64
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewRevisionRetrier(maxRetries uint64, m *metrics.Metrics, logger *slog.Logger) RevisionRetrier {
	return RevisionRetrier{
		maxRetries: maxRetries,
		metrics:    m,
		logger:     logger.With("component", "revision_retrier"),
	}
}

// Do runs fn until it succeeds, fails with a non revision error, or retries
// are exhausted. Exhaustion is reported as *errs.ConflictError.
func (r RevisionRetrier) Do(ctx context.Context, operation string, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 10 * time.Millisecond
	exp.MaxInterval = 200 * time.Millisecond
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, r.maxRetries), ctx)

	err := backoff.RetryNotify(func() error {
		err := fn()
		if err == nil || errors.Is(err, errs.ErrVersionIsInvalid) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, wait time.Duration) {
		r.metrics.IncrementRevisionConflict(operation)
		r.logger.DebugContext(ctx, "revision conflict, reloading", "operation", operation, "retry_in", wait, "error", err)
	})

	if errors.Is(err, errs.ErrVersionIsInvalid) {
		r.metrics.IncrementRevisionConflict(operation)
		return errs.NewConflictErrorWithCause(operation, "order was modified concurrently, retries exhausted", err)
	}
	return err
}
