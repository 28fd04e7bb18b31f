package domain

import (
	"context"
	"time"
)

// ContentQuery holds the shared filter contract every content source
// accepts: a per-call limit, a language preference and optional
// category include/exclude filters.
type ContentQuery struct {
	Limit           int
	Language        string // preferred language, boosts matching content
	IncludeCategory string // only this category when set
	ExcludeCategory string // never this category when set
}

// InteractionStore exposes the interaction and view history queries the
// engine consumes. All results are bounded and ordered most recent
// first. Implementations: internal/infra/postgres/repository.go
type InteractionStore interface {
	// GetPositiveInteractions returns the user's own interactions of the
	// given kinds, newest first.
	GetPositiveInteractions(ctx context.Context, userID UserID, kinds []InteractionKind, limit int) ([]InteractionRecord, error)

	// GetUsersWhoInteracted returns users who interacted with the
	// content with any of the given kinds, newest first.
	GetUsersWhoInteracted(ctx context.Context, contentID ContentID, kinds []InteractionKind, limit int) ([]UserID, error)

	// GetContentsInteractedByUser returns the user's interactions of the
	// given kinds, newest first. Used for neighbor expansion.
	GetContentsInteractedByUser(ctx context.Context, userID UserID, kinds []InteractionKind, limit int) ([]InteractionRecord, error)

	// GetRecentlyViewedContentIDs returns content the user viewed since
	// the cutoff.
	GetRecentlyViewedContentIDs(ctx context.Context, userID UserID, since time.Time, limit int) ([]ContentID, error)

	// CountInteractions returns the total number of interaction rows.
	CountInteractions(ctx context.Context) (int64, error)
}

// ContentStore exposes the content catalog queries behind the
// supplementary sources and candidate metadata lookups.
// Implementations: internal/infra/postgres/repository.go
type ContentStore interface {
	// GetByIDs returns metadata for the given contents. Missing ids are
	// silently omitted.
	GetByIDs(ctx context.Context, ids []ContentID) ([]*Content, error)

	// ListPopular returns contents ordered by popularity, ties broken by
	// publish recency.
	ListPopular(ctx context.Context, q ContentQuery) ([]*Content, error)

	// ListNewest returns contents ordered by publish timestamp
	// descending.
	ListNewest(ctx context.Context, q ContentQuery) ([]*Content, error)

	// ListRandom returns a uniform sample over the full eligible set,
	// not a prefix of it.
	ListRandom(ctx context.Context, q ContentQuery) ([]*Content, error)

	// RefreshPopularity recomputes the popularity column from weighted
	// interaction counts over the trailing window. Returns the number of
	// rows updated.
	RefreshPopularity(ctx context.Context, window time.Duration, weights InteractionWeights) (int64, error)

	// CountContents returns the total number of contents.
	CountContents(ctx context.Context) (int64, error)
}

// BlockStore exposes the block lists maintained by the Trust & Safety
// service. Implementations: internal/infra/safety/client.go
type BlockStore interface {
	// GetBlockedUserIDs returns creators the user has blocked.
	GetBlockedUserIDs(ctx context.Context, userID UserID) ([]UserID, error)

	// GetBlockedContentIDs returns contents the user has blocked.
	GetBlockedContentIDs(ctx context.Context, userID UserID) ([]ContentID, error)
}

// Cache defines the key/TTL cache store holding serialized feed
// batches. Set must replace atomically; readers never observe a
// partially written value. Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL, replacing atomically.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Idempotent.
	Delete(ctx context.Context, key string) error
}
