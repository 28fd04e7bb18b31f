package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

// FeedConfig holds the orchestrator's batch and cache settings.
type FeedConfig struct {
	BatchSize int
	CacheTTL  time.Duration
}

// Page is one slice of a feed batch returned to the transport layer.
type Page struct {
	Entries    []domain.FeedEntry
	NextCursor string
	HasNext    bool
}

// PageRequest describes one page request.
type PageRequest struct {
	UserID   domain.UserID
	Category string // optional, scopes the cached batch
	Language string // preferred language
	Cursor   string // opaque, empty means start
	Limit    int
}

// FeedService is the engine's entry point: it resolves whether a cached
// batch exists, triggers composition on miss and serves one page.
type FeedService struct {
	composer *Composer
	cache    domain.Cache
	cfg      FeedConfig
	logger   *zap.Logger
}

// NewFeedService creates a FeedService. cache may be nil, in which case
// every request composes from scratch.
func NewFeedService(composer *Composer, cache domain.Cache, cfg FeedConfig, logger *zap.Logger) *FeedService {
	return &FeedService{
		composer: composer,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetPage returns one page of the user's feed, composing and caching a
// fresh batch when none exists.
func (s *FeedService) GetPage(ctx context.Context, req PageRequest) (*Page, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidPageSize, req.Limit)
	}
	cursor, err := domain.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	key := s.batchKey(req.UserID, req.Category)
	batch := s.loadBatch(ctx, key)

	if batch == nil {
		// Compose detached from the caller's cancellation: the work is
		// paid for either way, so a cancelled client still populates the
		// cache for the next request.
		composeCtx := context.WithoutCancel(ctx)
		batch, err = s.composer.Compose(composeCtx, req.UserID, domain.ContentQuery{
			Language:        req.Language,
			IncludeCategory: req.Category,
		}, s.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(batch.Entries) > 0 {
			s.storeBatch(composeCtx, key, batch)
		}
	}

	// A cursor from a replaced batch restarts from the head rather than
	// erroring; infinite scroll keeps working across TTL expiry.
	offset := 0
	if cursor.BatchStamp == batch.Stamp() {
		offset = cursor.Offset
	}

	entries, next, hasNext := batch.Slice(offset, req.Limit)

	page := &Page{Entries: entries, HasNext: hasNext}
	if hasNext {
		page.NextCursor = domain.Cursor{BatchStamp: batch.Stamp(), Offset: next}.Encode()
	}
	return page, nil
}

// Refresh discards the user's cached batch so the next request composes
// a fresh one. Idempotent: refreshing an absent batch is a no-op.
func (s *FeedService) Refresh(ctx context.Context, userID domain.UserID, category string) error {
	if s.cache == nil {
		return nil
	}
	key := s.batchKey(userID, category)
	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidating feed batch: %w", err)
	}
	s.logger.Debug("feed batch invalidated",
		zap.String("user_id", string(userID)),
		zap.String("category", category),
	)
	return nil
}

// batchKey builds the cache key for a (user, category) feed.
func (s *FeedService) batchKey(userID domain.UserID, category string) string {
	if category == "" {
		return fmt.Sprintf("batch:%s", userID)
	}
	return fmt.Sprintf("batch:%s:%s", userID, category)
}

// loadBatch reads and decodes a cached batch. Any cache failure is a
// miss: the request degrades to composition instead of erroring.
func (s *FeedService) loadBatch(ctx context.Context, key string) *domain.FeedBatch {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("feed cache unavailable, composing without cache",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	if data == nil {
		return nil
	}
	var batch domain.FeedBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		s.logger.Warn("corrupt cached batch discarded",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	return &batch
}

// storeBatch writes a composed batch. Cache write failure only costs
// latency on future requests, never this response.
func (s *FeedService) storeBatch(ctx context.Context, key string, batch *domain.FeedBatch) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(batch)
	if err != nil {
		s.logger.Error("marshaling feed batch", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("feed cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
