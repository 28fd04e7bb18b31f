package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"feed-engine-service/internal/domain"
)

var errStoreDown = errors.New("store down")

// fakeInteractionStore serves canned interaction data.
type fakeInteractionStore struct {
	positives map[domain.UserID][]domain.InteractionRecord // newest first
	viewers   map[domain.ContentID][]domain.UserID
	viewed    map[domain.UserID][]domain.ContentID
	err       error
}

func (f *fakeInteractionStore) GetPositiveInteractions(_ context.Context, userID domain.UserID, _ []domain.InteractionKind, limit int) ([]domain.InteractionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return capRecords(f.positives[userID], limit), nil
}

func (f *fakeInteractionStore) GetUsersWhoInteracted(_ context.Context, contentID domain.ContentID, _ []domain.InteractionKind, limit int) ([]domain.UserID, error) {
	if f.err != nil {
		return nil, f.err
	}
	users := f.viewers[contentID]
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeInteractionStore) GetContentsInteractedByUser(_ context.Context, userID domain.UserID, _ []domain.InteractionKind, limit int) ([]domain.InteractionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return capRecords(f.positives[userID], limit), nil
}

func (f *fakeInteractionStore) GetRecentlyViewedContentIDs(_ context.Context, userID domain.UserID, _ time.Time, limit int) ([]domain.ContentID, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := f.viewed[userID]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeInteractionStore) CountInteractions(context.Context) (int64, error) {
	return 0, f.err
}

func capRecords(recs []domain.InteractionRecord, limit int) []domain.InteractionRecord {
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// fakeContentStore serves canned catalog data.
type fakeContentStore struct {
	byID    map[domain.ContentID]*domain.Content
	popular []*domain.Content
	newest  []*domain.Content
	random  []*domain.Content
	err     error
}

func (f *fakeContentStore) GetByIDs(_ context.Context, ids []domain.ContentID) ([]*domain.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Content, 0, len(ids))
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContentStore) ListPopular(_ context.Context, q domain.ContentQuery) ([]*domain.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return capContents(f.popular, q.Limit), nil
}

func (f *fakeContentStore) ListNewest(_ context.Context, q domain.ContentQuery) ([]*domain.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return capContents(f.newest, q.Limit), nil
}

func (f *fakeContentStore) ListRandom(_ context.Context, q domain.ContentQuery) ([]*domain.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return capContents(f.random, q.Limit), nil
}

func (f *fakeContentStore) RefreshPopularity(context.Context, time.Duration, domain.InteractionWeights) (int64, error) {
	return 0, f.err
}

func (f *fakeContentStore) CountContents(context.Context) (int64, error) {
	return int64(len(f.byID)), f.err
}

func capContents(contents []*domain.Content, limit int) []*domain.Content {
	if limit > 0 && len(contents) > limit {
		contents = contents[:limit]
	}
	return contents
}

// fakeBlockStore serves canned block lists.
type fakeBlockStore struct {
	users    []domain.UserID
	contents []domain.ContentID
	err      error
}

func (f *fakeBlockStore) GetBlockedUserIDs(context.Context, domain.UserID) ([]domain.UserID, error) {
	return f.users, f.err
}

func (f *fakeBlockStore) GetBlockedContentIDs(context.Context, domain.UserID) ([]domain.ContentID, error) {
	return f.contents, f.err
}

// fakeCache is an in-memory domain.Cache.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
	dels   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.sets++
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.dels++
	return nil
}

// fakeSource is a Source with a fixed answer.
type fakeSource struct {
	strategy domain.Strategy
	entries  []domain.FeedEntry
	err      error

	mu        sync.Mutex
	gotLimits []int
}

func (f *fakeSource) Strategy() domain.Strategy { return f.strategy }

func (f *fakeSource) Select(_ context.Context, _ domain.UserID, q domain.ContentQuery) ([]domain.FeedEntry, error) {
	f.mu.Lock()
	f.gotLimits = append(f.gotLimits, q.Limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	entries := f.entries
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

func mustAllocator() *domain.Allocator {
	a, err := domain.NewAllocator(map[domain.Strategy]float64{
		domain.StrategyCF:      0.40,
		domain.StrategyPopular: 0.30,
		domain.StrategyNew:     0.10,
		domain.StrategyRandom:  0.20,
	}, domain.StrategyRandom)
	if err != nil {
		panic(err)
	}
	return a
}

func testComposerConfig() ComposerConfig {
	return ComposerConfig{
		BlendWeights: map[domain.Strategy]float64{
			domain.StrategyCF:      1.0,
			domain.StrategyPopular: 0.8,
			domain.StrategyNew:     0.6,
			domain.StrategyRandom:  0.4,
		},
		SourceTimeout:     time.Second,
		ViewRecencyWindow: 72 * time.Hour,
	}
}
