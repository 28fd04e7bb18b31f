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

func entriesFor(strategy domain.Strategy, ids ...domain.ContentID) []domain.FeedEntry {
	entries := make([]domain.FeedEntry, len(ids))
	for i, id := range ids {
		entries[i] = domain.FeedEntry{
			ContentID: id,
			AuthorID:  domain.UserID("author-" + string(id)),
			Score:     float64(len(ids) - i),
			Strategy:  strategy,
		}
	}
	return entries
}

func newTestComposer(sources []Source, interactions domain.InteractionStore, blocks domain.BlockStore) *Composer {
	return NewComposer(mustAllocator(), sources, interactions, blocks, testComposerConfig(), zap.NewNop())
}

func TestComposer_QuotasReachSources(t *testing.T) {
	cf := &fakeSource{strategy: domain.StrategyCF}
	popular := &fakeSource{strategy: domain.StrategyPopular}
	newest := &fakeSource{strategy: domain.StrategyNew}
	random := &fakeSource{strategy: domain.StrategyRandom}

	composer := newTestComposer(
		[]Source{cf, popular, newest, random},
		&fakeInteractionStore{}, &fakeBlockStore{},
	)

	_, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	require.NoError(t, err)

	assert.Equal(t, []int{100}, cf.gotLimits)
	assert.Equal(t, []int{75}, popular.gotLimits)
	assert.Equal(t, []int{25}, newest.gotLimits)
	assert.Equal(t, []int{50}, random.gotLimits)
}

func TestComposer_SingleSourceFailureIsAbsorbed(t *testing.T) {
	cf := &fakeSource{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "c1", "c2")}
	popular := &fakeSource{strategy: domain.StrategyPopular, err: errStoreDown}
	newest := &fakeSource{strategy: domain.StrategyNew, entries: entriesFor(domain.StrategyNew, "c3")}
	random := &fakeSource{strategy: domain.StrategyRandom, entries: entriesFor(domain.StrategyRandom, "c4")}

	composer := newTestComposer(
		[]Source{cf, popular, newest, random},
		&fakeInteractionStore{}, &fakeBlockStore{},
	)

	batch, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	require.NoError(t, err, "one failed source must not fail composition")
	assert.Len(t, batch.Entries, 4)
}

func TestComposer_AllSourcesFailed(t *testing.T) {
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyPopular, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyNew, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyRandom, err: errStoreDown},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{})

	_, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	assert.True(t, errors.Is(err, domain.ErrAllSourcesFailed))
}

func TestComposer_CFEmptyAndRestFailed(t *testing.T) {
	// CF succeeds with zero items while every supplementary source
	// fails: nothing usable was produced, so the composition errors
	// instead of caching an empty batch.
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF},
		&fakeSource{strategy: domain.StrategyPopular, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyNew, err: errStoreDown},
		&fakeSource{strategy: domain.StrategyRandom, err: errStoreDown},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{})

	_, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	assert.True(t, errors.Is(err, domain.ErrAllSourcesFailed))
}

func TestComposer_CFEmptyButSupplementarySucceed(t *testing.T) {
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF}, // new user, no signal
		&fakeSource{strategy: domain.StrategyPopular, entries: entriesFor(domain.StrategyPopular, "p1", "p2")},
		&fakeSource{strategy: domain.StrategyNew, entries: entriesFor(domain.StrategyNew, "n1")},
		&fakeSource{strategy: domain.StrategyRandom, entries: entriesFor(domain.StrategyRandom, "r1")},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{})

	batch, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	require.NoError(t, err)
	assert.Len(t, batch.Entries, 4, "feed composes fully from non-personalized strategies")
}

func TestComposer_DuplicateAcrossStrategies(t *testing.T) {
	// "dup" is proposed by CF (rank 1 of 1, blend 1.0 → 1.0) and by
	// popular (rank 1 of 2, blend 0.8 → 0.8). The CF entry must win.
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "dup")},
		&fakeSource{strategy: domain.StrategyPopular, entries: entriesFor(domain.StrategyPopular, "dup", "p2")},
		&fakeSource{strategy: domain.StrategyNew},
		&fakeSource{strategy: domain.StrategyRandom},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{})

	batch, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	require.NoError(t, err)
	require.Len(t, batch.Entries, 2)

	assert.Equal(t, domain.ContentID("dup"), batch.Entries[0].ContentID)
	assert.Equal(t, domain.StrategyCF, batch.Entries[0].Strategy)
	assert.InDelta(t, 1.0, batch.Entries[0].Score, 1e-9)
}

func TestComposer_BlockedContentNeverServed(t *testing.T) {
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "c1", "c2")},
		&fakeSource{strategy: domain.StrategyPopular, entries: entriesFor(domain.StrategyPopular, "p1")},
		&fakeSource{strategy: domain.StrategyNew},
		&fakeSource{strategy: domain.StrategyRandom},
	}
	blocks := &fakeBlockStore{
		users:    []domain.UserID{"author-c2"},
		contents: []domain.ContentID{"p1"},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, blocks)

	batch, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	require.NoError(t, err)
	require.Len(t, batch.Entries, 1)
	assert.Equal(t, domain.ContentID("c1"), batch.Entries[0].ContentID)
}

func TestComposer_BlockListFailureFailsComposition(t *testing.T) {
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "c1")},
		&fakeSource{strategy: domain.StrategyPopular},
		&fakeSource{strategy: domain.StrategyNew},
		&fakeSource{strategy: domain.StrategyRandom},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{err: errStoreDown})

	_, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
	require.Error(t, err, "blocked content must never leak through a degraded filter")
}

func TestComposer_DeterministicOrder(t *testing.T) {
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "c1", "c2", "c3")},
		&fakeSource{strategy: domain.StrategyPopular, entries: entriesFor(domain.StrategyPopular, "p1", "p2")},
		&fakeSource{strategy: domain.StrategyNew, entries: entriesFor(domain.StrategyNew, "n1")},
		&fakeSource{strategy: domain.StrategyRandom, entries: entriesFor(domain.StrategyRandom, "r1")},
	}

	var first []domain.ContentID
	for run := 0; run < 10; run++ {
		composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{})
		batch, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 250)
		require.NoError(t, err)

		ids := make([]domain.ContentID, len(batch.Entries))
		for i, e := range batch.Entries {
			ids[i] = e.ContentID
		}
		if first == nil {
			first = ids
			continue
		}
		require.Equal(t, first, ids, "ranking must not depend on completion order")
	}
}

func TestComposer_InvalidSize(t *testing.T) {
	composer := newTestComposer(nil, &fakeInteractionStore{}, &fakeBlockStore{})

	_, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidPageSize))
}

func TestComposer_TruncatesToBatchSize(t *testing.T) {
	// 10-item batch: quotas are cf=4, popular=3, new=1, random=2.
	sources := []Source{
		&fakeSource{strategy: domain.StrategyCF, entries: entriesFor(domain.StrategyCF, "c1", "c2", "c3", "c4")},
		&fakeSource{strategy: domain.StrategyPopular, entries: entriesFor(domain.StrategyPopular, "p1", "p2", "p3")},
		&fakeSource{strategy: domain.StrategyNew, entries: entriesFor(domain.StrategyNew, "n1")},
		&fakeSource{strategy: domain.StrategyRandom, entries: entriesFor(domain.StrategyRandom, "r1", "r2")},
	}
	composer := newTestComposer(sources, &fakeInteractionStore{}, &fakeBlockStore{})

	batch, err := composer.Compose(context.Background(), "u", domain.ContentQuery{}, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(batch.Entries), 10)
	assert.Len(t, batch.Entries, 10)
}
