// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
	"feed-engine-service/pkg/locker"
)

// BatchInvalidator drops cached feed batches. After a popularity
// refresh every cached batch ranks on stale scores, so the refresher
// purges them.
type BatchInvalidator interface {
	Clear(ctx context.Context) error
}

// PopularityRefresher periodically recomputes content popularity from
// recent interactions, with distributed locking to ensure only one
// instance runs the refresh at a time.
type PopularityRefresher struct {
	contents    domain.ContentStore
	invalidator BatchInvalidator
	interval    time.Duration
	window      time.Duration
	timeout     time.Duration
	weights     domain.InteractionWeights
	logger      *zap.Logger
	locker      locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RefresherConfig holds popularity refresher configuration.
type RefresherConfig struct {
	Interval  time.Duration
	Window    time.Duration // trailing interaction window
	Timeout   time.Duration
	OnStartup bool
}

// NewPopularityRefresher creates a new PopularityRefresher with
// distributed locking support.
//
// Parameters:
//   - contents: Store exposing the popularity recompute
//   - invalidator: Cache holding the feed batches to purge afterwards (nil disables)
//   - cfg: Refresher configuration including interval, window and timeout
//   - weights: Interaction weight table used for scoring
//   - logger: Structured logger for operational visibility
//   - locker: Distributed locker for cross-instance coordination
func NewPopularityRefresher(
	contents domain.ContentStore,
	invalidator BatchInvalidator,
	cfg RefresherConfig,
	weights domain.InteractionWeights,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *PopularityRefresher {
	return &PopularityRefresher{
		contents:    contents,
		invalidator: invalidator,
		interval:    cfg.Interval,
		window:      cfg.Window,
		timeout:     cfg.Timeout,
		weights:     weights,
		logger:      logger,
		locker:      locker,
	}
}

// Start begins the background refresh job.
func (r *PopularityRefresher) Start(runOnStartup bool) {
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.logger.Info("starting popularity refresher",
		zap.Duration("interval", r.interval),
		zap.Duration("window", r.window),
		zap.Bool("run_on_startup", runOnStartup),
	)

	r.wg.Add(1)
	go r.run(runOnStartup)
}

// Stop gracefully stops the refresher.
func (r *PopularityRefresher) Stop() {
	r.logger.Info("stopping popularity refresher")
	r.cancel()
	r.wg.Wait()
	r.logger.Info("popularity refresher stopped")
}

// run is the main loop of the refresher.
func (r *PopularityRefresher) run(runOnStartup bool) {
	defer r.wg.Done()

	// Run immediately if configured
	if runOnStartup {
		r.executeRefresh()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.executeRefresh()
		}
	}
}

// executeRefresh recomputes popularity with distributed locking and
// timeout.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: Lock held for full interval to prevent duplicate refreshes
//   - Failure: Lock released immediately to allow retry by another instance
func (r *PopularityRefresher) executeRefresh() {
	const lockKey = "popularity:refresher:lock"

	// Try to acquire lock with interval-based TTL (cooldown model)
	acquired, err := r.locker.Acquire(r.ctx, lockKey, r.interval)
	if err != nil {
		r.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		r.logger.Debug("another instance is refreshing popularity, skipping execution")

		return
	}

	// Lock acquired - run refresh with timeout
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	updated, err := r.contents.RefreshPopularity(ctx, r.window, r.weights)
	if err != nil {
		// Release lock immediately on error (allow immediate retry)
		if relErr := r.locker.Release(r.ctx, lockKey); relErr != nil {
			r.logger.Error("failed to release lock after refresh error", zap.Error(relErr))
		}
		r.logger.Warn("popularity refresh failed, lock released for retry",
			zap.Error(err),
		)

		return
	}

	// Cached batches now rank on stale scores; drop them so the next
	// page request composes against fresh popularity. Failure here is
	// tolerable: batches also age out through their TTL.
	if r.invalidator != nil {
		if err := r.invalidator.Clear(ctx); err != nil {
			r.logger.Warn("failed to invalidate cached batches after refresh",
				zap.Error(err),
			)
		}
	}

	// Lock will expire naturally after interval (cooldown period)
	r.logger.Info("popularity refresh completed, lock held for cooldown",
		zap.Int64("contents_updated", updated),
		zap.Duration("cooldown", r.interval),
	)
}
