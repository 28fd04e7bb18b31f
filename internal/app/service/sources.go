// Package service provides application use cases.
package service

import (
	"context"
	"fmt"

	"feed-engine-service/internal/domain"
)

// Source is one content-selection strategy the composer fans out to.
// Implementations must not share mutable state; every call returns a
// fresh slice.
type Source interface {
	// Strategy identifies this source's slot in the allocation table.
	Strategy() domain.Strategy

	// Select returns up to q.Limit candidates for the user, ordered by
	// the source's own relevance notion.
	Select(ctx context.Context, userID domain.UserID, q domain.ContentQuery) ([]domain.FeedEntry, error)
}

// PopularSource selects content by interaction-weighted popularity over
// the trailing window, ties broken by publish recency. The popularity
// column itself is maintained by the background refresher.
type PopularSource struct {
	contents domain.ContentStore
}

// NewPopularSource creates a PopularSource.
func NewPopularSource(contents domain.ContentStore) *PopularSource {
	return &PopularSource{contents: contents}
}

// Strategy implements Source.
func (s *PopularSource) Strategy() domain.Strategy { return domain.StrategyPopular }

// Select implements Source.
func (s *PopularSource) Select(ctx context.Context, _ domain.UserID, q domain.ContentQuery) ([]domain.FeedEntry, error) {
	contents, err := s.contents.ListPopular(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting popular content: %w", err)
	}
	return entriesFromContents(contents, domain.StrategyPopular, func(c *domain.Content) float64 {
		return c.Popularity
	}), nil
}

// NewContentSource selects content by publish timestamp, newest first.
type NewContentSource struct {
	contents domain.ContentStore
}

// NewNewContentSource creates a NewContentSource.
func NewNewContentSource(contents domain.ContentStore) *NewContentSource {
	return &NewContentSource{contents: contents}
}

// Strategy implements Source.
func (s *NewContentSource) Strategy() domain.Strategy { return domain.StrategyNew }

// Select implements Source.
func (s *NewContentSource) Select(ctx context.Context, _ domain.UserID, q domain.ContentQuery) ([]domain.FeedEntry, error) {
	contents, err := s.contents.ListNewest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting new content: %w", err)
	}
	return entriesFromContents(contents, domain.StrategyNew, func(c *domain.Content) float64 {
		return float64(c.PublishedAt.Unix())
	}), nil
}

// RandomSource selects a uniform sample over the whole eligible set.
type RandomSource struct {
	contents domain.ContentStore
}

// NewRandomSource creates a RandomSource.
func NewRandomSource(contents domain.ContentStore) *RandomSource {
	return &RandomSource{contents: contents}
}

// Strategy implements Source.
func (s *RandomSource) Strategy() domain.Strategy { return domain.StrategyRandom }

// Select implements Source.
func (s *RandomSource) Select(ctx context.Context, _ domain.UserID, q domain.ContentQuery) ([]domain.FeedEntry, error) {
	contents, err := s.contents.ListRandom(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting random content: %w", err)
	}
	return entriesFromContents(contents, domain.StrategyRandom, func(*domain.Content) float64 {
		return 0 // sampled, no relevance notion of its own
	}), nil
}

// entriesFromContents converts catalog rows into feed entries carrying
// the source's raw score. The composer rank-normalizes these before
// merging, so raw scales never leak across strategies.
func entriesFromContents(contents []*domain.Content, strategy domain.Strategy, score func(*domain.Content) float64) []domain.FeedEntry {
	entries := make([]domain.FeedEntry, len(contents))
	for i, c := range contents {
		entries[i] = domain.FeedEntry{
			ContentID: c.ID,
			AuthorID:  c.AuthorID,
			Score:     score(c),
			Strategy:  strategy,
		}
	}
	return entries
}
