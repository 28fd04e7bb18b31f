package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

// ComposerConfig holds composition settings.
type ComposerConfig struct {
	// BlendWeights scales each strategy's rank-normalized scores before
	// merging, so outputs with incomparable raw scales rank sensibly
	// against each other.
	BlendWeights map[domain.Strategy]float64

	// SourceTimeout bounds each source individually; a slow source fails
	// alone and never delays aborting its siblings.
	SourceTimeout time.Duration

	// ViewRecencyWindow is how far back views suppress re-serving.
	ViewRecencyWindow time.Duration
}

// Composer builds one feed batch: it allocates per-strategy quotas,
// fans out to every source concurrently, merges and filters the results
// into a deterministic ranking.
type Composer struct {
	allocator    *domain.Allocator
	sources      []Source
	interactions domain.InteractionStore
	blocks       domain.BlockStore
	cfg          ComposerConfig
	logger       *zap.Logger
}

// NewComposer creates a Composer. The sources slice must contain one
// source per allocated strategy.
func NewComposer(
	allocator *domain.Allocator,
	sources []Source,
	interactions domain.InteractionStore,
	blocks domain.BlockStore,
	cfg ComposerConfig,
	logger *zap.Logger,
) *Composer {
	return &Composer{
		allocator:    allocator,
		sources:      sources,
		interactions: interactions,
		blocks:       blocks,
		cfg:          cfg,
		logger:       logger,
	}
}

// sourceResult holds one source's contribution to a composition.
type sourceResult struct {
	strategy domain.Strategy
	entries  []domain.FeedEntry
	err      error
}

// Compose builds a feed batch of up to size entries for the user.
//
// Individual source failures (store down, timeout) are absorbed: the
// source contributes nothing and composition proceeds with whatever
// succeeded. Only a composition that produced nothing usable while at
// least one source failed returns domain.ErrAllSourcesFailed.
func (c *Composer) Compose(ctx context.Context, userID domain.UserID, q domain.ContentQuery, size int) (*domain.FeedBatch, error) {
	quotas, err := c.allocator.Allocate(size)
	if err != nil {
		return nil, err
	}

	// Exclusion sets load concurrently with the sources; they join at
	// the same barrier.
	var (
		wg      sync.WaitGroup
		results = make([]sourceResult, len(c.sources))
		excl    domain.ExclusionSets
		exclErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		excl, exclErr = c.loadExclusions(ctx, userID)
	}()

	for i, source := range c.sources {
		quota := quotas[source.Strategy()]
		if quota <= 0 {
			results[i] = sourceResult{strategy: source.Strategy()}
			continue
		}
		wg.Add(1)
		go func(idx int, src Source, limit int) {
			defer wg.Done()
			results[idx] = c.selectFrom(ctx, src, userID, q, limit)
		}(i, source, quota)
	}

	wg.Wait()

	if exclErr != nil {
		// Block lists are a correctness input: serving blocked content
		// is worse than serving no feed.
		return nil, exclErr
	}

	merged := make([]domain.FeedEntry, 0, size)
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			c.logger.Warn("feed source failed",
				zap.String("strategy", string(r.strategy)),
				zap.Error(r.err),
			)
			continue
		}
		merged = append(merged, c.normalize(r.strategy, r.entries)...)
	}

	if failures == len(c.sources) || (len(merged) == 0 && failures > 0) {
		return nil, fmt.Errorf("%w: %d/%d sources failed", domain.ErrAllSourcesFailed, failures, len(c.sources))
	}

	filtered := domain.FilterEntries(merged, excl)

	// Final ranking is a pure function of scores, never of goroutine
	// completion order.
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].ContentID < filtered[j].ContentID
	})

	if len(filtered) > size {
		filtered = filtered[:size]
	}

	c.logger.Debug("feed composed",
		zap.String("user_id", string(userID)),
		zap.Int("merged", len(merged)),
		zap.Int("final", len(filtered)),
		zap.Int("sources_failed", failures),
	)

	return &domain.FeedBatch{
		Entries:   filtered,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// selectFrom runs one source under its own timeout.
func (c *Composer) selectFrom(ctx context.Context, src Source, userID domain.UserID, q domain.ContentQuery, limit int) sourceResult {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SourceTimeout)
	defer cancel()

	sq := q
	sq.Limit = limit

	start := time.Now()
	entries, err := src.Select(ctx, userID, sq)
	if err != nil {
		return sourceResult{strategy: src.Strategy(), err: err}
	}

	c.logger.Debug("source selected",
		zap.String("strategy", string(src.Strategy())),
		zap.Int("count", len(entries)),
		zap.Duration("duration", time.Since(start)),
	)

	return sourceResult{strategy: src.Strategy(), entries: entries}
}

// loadExclusions fetches the block lists and recent view history. A
// view-history failure degrades to an empty set (repetition is
// tolerable); a block-list failure is returned to the caller (leakage
// is not).
func (c *Composer) loadExclusions(ctx context.Context, userID domain.UserID) (domain.ExclusionSets, error) {
	blockedUsers, err := c.blocks.GetBlockedUserIDs(ctx, userID)
	if err != nil {
		return domain.ExclusionSets{}, fmt.Errorf("fetching blocked users: %w", err)
	}
	blockedContents, err := c.blocks.GetBlockedContentIDs(ctx, userID)
	if err != nil {
		return domain.ExclusionSets{}, fmt.Errorf("fetching blocked contents: %w", err)
	}

	since := domain.ViewRecencyWindow(time.Now().UTC(), c.cfg.ViewRecencyWindow)
	viewed, err := c.interactions.GetRecentlyViewedContentIDs(ctx, userID, since, viewedFetchLimit)
	if err != nil {
		c.logger.Warn("view history unavailable, recent views not excluded",
			zap.String("user_id", string(userID)),
			zap.Error(err),
		)
		viewed = nil
	}

	return domain.NewExclusionSets(blockedUsers, blockedContents, viewed), nil
}

// normalize converts a source's ordered output into blended scores in
// (0, blendWeight]. Rank carries the information; raw scales from
// different strategies never compete directly.
func (c *Composer) normalize(strategy domain.Strategy, entries []domain.FeedEntry) []domain.FeedEntry {
	if len(entries) == 0 {
		return nil
	}
	blend, ok := c.cfg.BlendWeights[strategy]
	if !ok {
		blend = 1.0
	}
	n := float64(len(entries))
	out := make([]domain.FeedEntry, len(entries))
	for i, entry := range entries {
		entry.Score = blend * (n - float64(i)) / n
		out[i] = entry
	}
	return out
}
