// Package anchoring submits snapshots of custody tracks to the content-anchor
// store with a per-call timeout, bounded retries and a stable idempotency key.
package anchoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"custody/internal/core/domain/model/order"
	"custody/internal/core/ports"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
)

const recentCapacity = 1024

type Config struct {
	// Timeout bounds a single upload attempt.
	Timeout     time.Duration
	MaxAttempts uint64
	// InitialInterval is the first retry delay; it doubles up to 2s.
	InitialInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
	}
}

// Anchorer uploads the track projection of an order.
//
// Example:
//
//	anchorer := anchoring.NewAnchorer(pinataClient, anchoring.DefaultConfig(), m, logger)
//	anchorID, err := anchorer.Anchor(ctx, o)
//	var anchorErr *errs.AnchorError
//	if errors.As(err, &anchorErr) {
//	    // the mutation at anchorErr.Revision stays committed
//	}
type Anchorer struct {
	client  ports.AnchorClient
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	recent map[string]string
}

func NewAnchorer(client ports.AnchorClient, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Anchorer {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultConfig().InitialInterval
	}
	return &Anchorer{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "anchorer"),
		recent:  make(map[string]string),
	}
}

// Anchor uploads the current track of o and returns the content identifier.
// Failures are returned as *errs.AnchorError carrying o's committed revision.
// Anchoring the same order and track twice yields the same request key, and
// a key that already succeeded in this process is answered without a new
// upload.
func (a *Anchorer) Anchor(ctx context.Context, o *order.Order) (string, error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAnchorLatency(time.Since(start)) }()

	track := Projection(o)
	key, err := IdempotencyKey(o.ID().String(), track)
	if err != nil {
		return "", errs.NewAnchorError(o.ID(), o.Revision(), err)
	}
	if anchorID, ok := a.lookup(key); ok {
		return anchorID, nil
	}

	request := ports.AnchorRequest{
		IdempotencyKey: key,
		OrderID:        o.ID().String(),
		Track:          track,
	}

	var anchorID string
	upload := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()

		id, uploadErr := a.client.Upload(attemptCtx, request)
		if uploadErr != nil {
			a.metrics.IncrementAnchorAttempt("retry")
			return uploadErr
		}
		if id == "" {
			a.metrics.IncrementAnchorAttempt("retry")
			return errors.New("anchor store returned an empty content identifier")
		}
		anchorID = id
		return nil
	}
	notify := func(err error, wait time.Duration) {
		a.logger.WarnContext(ctx, "anchor upload failed, retrying",
			"order_id", o.ID().String(), "retry_in", wait, "error", err)
	}

	if err = backoff.RetryNotify(upload, a.backOff(ctx), notify); err != nil {
		a.metrics.IncrementAnchorAttempt("failed")
		a.logger.ErrorContext(ctx, "anchoring failed",
			"order_id", o.ID().String(), "revision", o.Revision(), "error", err)
		return "", errs.NewAnchorError(o.ID(), o.Revision(), err)
	}

	a.metrics.IncrementAnchorAttempt("ok")
	a.remember(key, anchorID)
	return anchorID, nil
}

func (a *Anchorer) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = a.cfg.InitialInterval
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, a.cfg.MaxAttempts-1), ctx)
}

func (a *Anchorer) lookup(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.recent[key]
	return id, ok
}

func (a *Anchorer) remember(key, anchorID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.recent) >= recentCapacity {
		clear(a.recent)
	}
	a.recent[key] = anchorID
}

// Projection is the anchored view of the track: owner and flags per hop, in
// custody order.
func Projection(o *order.Order) []ports.HopView {
	track := o.Track()
	views := make([]ports.HopView, 0, len(track))
	for _, h := range track {
		views = append(views, ports.HopView{
			Owner:         h.Owner().String(),
			ReceiveStatus: h.Received(),
			GiveStatus:    h.Given(),
		})
	}
	return views
}

// IdempotencyKey hashes the canonical JSON of the order id and track.
func IdempotencyKey(orderID string, track []ports.HopView) (string, error) {
	b, err := json.Marshal(struct {
		OrderID string          `json:"order_id"`
		Track   []ports.HopView `json:"track"`
	}{OrderID: orderID, Track: track})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
