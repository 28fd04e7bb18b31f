package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

func newTestFeedService(t *testing.T, cache domain.Cache) (*FeedService, []*fakeSource) {
	t.Helper()

	sources := []*fakeSource{
		{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "c1", "c2", "c3")},
		{strategy: domain.StrategyPopular, entries: entriesFor(domain.StrategyPopular, "p1", "p2")},
		{strategy: domain.StrategyNew, entries: entriesFor(domain.StrategyNew, "n1")},
		{strategy: domain.StrategyRandom, entries: entriesFor(domain.StrategyRandom, "r1")},
	}
	asSources := make([]Source, len(sources))
	for i, s := range sources {
		asSources[i] = s
	}

	composer := NewComposer(mustAllocator(), asSources, &fakeInteractionStore{}, &fakeBlockStore{}, testComposerConfig(), zap.NewNop())
	svc := NewFeedService(composer, cache, FeedConfig{BatchSize: 250, CacheTTL: 0}, zap.NewNop())
	return svc, sources
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gotLimits)
}

func TestFeedService_ComposesOnMissThenServesFromCache(t *testing.T) {
	cache := newFakeCache()
	svc, sources := newTestFeedService(t, cache)
	ctx := context.Background()

	page, err := svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 3)
	assert.True(t, page.HasNext)
	assert.Equal(t, 1, cache.sets)

	// Second page comes from the cached batch, no recomposition.
	page2, err := svc.GetPage(ctx, PageRequest{UserID: "u", Cursor: page.NextCursor, Limit: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, page2.Entries)
	for _, s := range sources {
		assert.Equal(t, 1, s.calls(), "strategy %s must not recompose on cache hit", s.strategy)
	}
}

func TestFeedService_CursorPaginationMatchesFullBatch(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newTestFeedService(t, cache)
	ctx := context.Background()

	// Full batch in one request.
	full, err := svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 50})
	require.NoError(t, err)
	require.False(t, full.HasNext)

	// Same batch page by page via returned cursors.
	require.NoError(t, svc.Refresh(ctx, "u", ""))
	var walked []domain.FeedEntry
	cursor := ""
	for {
		page, err := svc.GetPage(ctx, PageRequest{UserID: "u", Cursor: cursor, Limit: 2})
		require.NoError(t, err)
		walked = append(walked, page.Entries...)
		if !page.HasNext {
			break
		}
		cursor = page.NextCursor
	}

	require.Len(t, walked, len(full.Entries))
	for i := range walked {
		assert.Equal(t, full.Entries[i].ContentID, walked[i].ContentID, "position %d", i)
	}
}

func TestFeedService_RefreshIsIdempotent(t *testing.T) {
	cache := newFakeCache()
	svc, sources := newTestFeedService(t, cache)
	ctx := context.Background()

	_, err := svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 5})
	require.NoError(t, err)

	// Refresh twice with no intervening GetPage: same effect as once.
	require.NoError(t, svc.Refresh(ctx, "u", ""))
	require.NoError(t, svc.Refresh(ctx, "u", ""))

	_, err = svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 5})
	require.NoError(t, err)
	for _, s := range sources {
		assert.Equal(t, 2, s.calls(), "exactly one recomposition after repeated refresh")
	}
}

func TestFeedService_CacheUnavailableDegradesToComposition(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc, sources := newTestFeedService(t, cache)
	ctx := context.Background()

	// Every request recomposes while the cache store is down, but each
	// still returns a correct page.
	for i := 0; i < 3; i++ {
		page, err := svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 3})
		require.NoError(t, err)
		assert.Len(t, page.Entries, 3)
	}
	for _, s := range sources {
		assert.Equal(t, 3, s.calls())
	}
}

func TestFeedService_NilCacheComposesEveryRequest(t *testing.T) {
	svc, sources := newTestFeedService(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 3})
		require.NoError(t, err)
	}
	for _, s := range sources {
		assert.Equal(t, 2, s.calls())
	}
}

func TestFeedService_InvalidLimit(t *testing.T) {
	svc, _ := newTestFeedService(t, newFakeCache())

	_, err := svc.GetPage(context.Background(), PageRequest{UserID: "u", Limit: 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidPageSize))

	_, err = svc.GetPage(context.Background(), PageRequest{UserID: "u", Limit: -5})
	assert.True(t, errors.Is(err, domain.ErrInvalidPageSize))
}

func TestFeedService_MalformedCursorRejected(t *testing.T) {
	svc, _ := newTestFeedService(t, newFakeCache())

	_, err := svc.GetPage(context.Background(), PageRequest{UserID: "u", Cursor: "garbage!!", Limit: 5})
	assert.Error(t, err)
}

func TestFeedService_AllSourcesFailedNothingCached(t *testing.T) {
	cache := newFakeCache()
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF},
		&fakeSource{strategy: domain.StrategyPopular, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyNew, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyRandom, err: errStoreDown},
	}
	composer := NewComposer(mustAllocator(), sources, &fakeInteractionStore{}, &fakeBlockStore{}, testComposerConfig(), zap.NewNop())
	svc := NewFeedService(composer, cache, FeedConfig{BatchSize: 250}, zap.NewNop())

	_, err := svc.GetPage(context.Background(), PageRequest{UserID: "u", Limit: 5})
	assert.True(t, errors.Is(err, domain.ErrAllSourcesFailed))
	assert.Equal(t, 0, cache.sets, "failed composition must not cache a batch")
}

func TestFeedService_CategoryScopesTheBatch(t *testing.T) {
	cache := newFakeCache()
	svc, sources := newTestFeedService(t, cache)
	ctx := context.Background()

	_, err := svc.GetPage(ctx, PageRequest{UserID: "u", Limit: 3})
	require.NoError(t, err)
	_, err = svc.GetPage(ctx, PageRequest{UserID: "u", Category: "music", Limit: 3})
	require.NoError(t, err)

	for _, s := range sources {
		assert.Equal(t, 2, s.calls(), "distinct categories compose distinct batches")
	}
	assert.Equal(t, 2, cache.sets)
}
