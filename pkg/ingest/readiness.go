package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/vector"
)

const (
	// DefaultPollInterval is the delay between readiness checks.
	DefaultPollInterval = time.Second

	// DefaultReadyTimeout bounds how long a run waits for indexing.
	DefaultReadyTimeout = 5 * time.Minute
)

// ReadinessOpts configures readiness polling. Zero values fall back to
// defaults.
type ReadinessOpts struct {
	// Interval is the delay between status checks.
	Interval time.Duration

	// Timeout bounds the total wait.
	Timeout time.Duration
}

// AwaitReady polls the collection's indexing status until it reports ready,
// the timeout elapses, or the context is cancelled. Non-ready states are
// treated uniformly as not-yet-ready; a status check error fails the wait
// immediately.
func AwaitReady(ctx context.Context, driver vector.Driver, collection string, logger *zap.Logger, opts ReadinessOpts) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last vector.Status
	for {
		status, err := driver.CollectionStatus(ctx, collection)
		if err != nil {
			return fmt.Errorf("checking status of collection %q: %w", collection, err)
		}
		last = status

		if status == vector.StatusReady {
			logger.Info("collection ready", zap.String("collection", collection))
			return nil
		}

		logger.Debug("collection not ready",
			zap.String("collection", collection),
			zap.String("status", status.String()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: collection %q last reported %s", ErrReadinessTimeout, collection, last)
		case <-time.After(interval):
		}
	}
}
