package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

// viewedFetchLimit bounds the recently-viewed lookup used to exclude
// already-seen candidates during neighbor expansion.
const viewedFetchLimit = 500

// CFParams holds the collaborative filtering tuning parameters. All of
// them come from configuration.
type CFParams struct {
	SeedLimit         int
	NeighborLimit     int
	CandidateLimit    int
	Weights           domain.InteractionWeights
	LanguageBoost     float64
	ViewRecencyWindow time.Duration
}

// CFEngine implements item-based collaborative filtering: content that
// users with overlapping taste interacted with, scored by interaction
// strength and corroboration across independent neighbors.
type CFEngine struct {
	interactions domain.InteractionStore
	contents     domain.ContentStore
	params       CFParams
	logger       *zap.Logger
}

// NewCFEngine creates a CFEngine.
func NewCFEngine(interactions domain.InteractionStore, contents domain.ContentStore, params CFParams, logger *zap.Logger) *CFEngine {
	return &CFEngine{
		interactions: interactions,
		contents:     contents,
		params:       params,
		logger:       logger,
	}
}

// Strategy implements Source.
func (e *CFEngine) Strategy() domain.Strategy { return domain.StrategyCF }

// candidate accumulates the score of one recommended content across
// every neighbor that surfaced it.
type candidate struct {
	score  float64
	lastAt time.Time // most recent contributing interaction, tie-break
}

// Select implements Source.
//
// An empty result is not an error: a user without positive interactions
// has no collaborative signal and the other strategies fill the feed.
func (e *CFEngine) Select(ctx context.Context, userID domain.UserID, q domain.ContentQuery) ([]domain.FeedEntry, error) {
	positive := domain.PositiveKinds()

	// 1. Seed set: the user's own recent positive interactions.
	seeds, err := e.interactions.GetPositiveInteractions(ctx, userID, positive, e.params.SeedLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching seed interactions: %w", err)
	}
	if len(seeds) == 0 {
		e.logger.Debug("no collaborative signal", zap.String("user_id", string(userID)))
		return nil, nil
	}

	seedSet := make(map[domain.ContentID]struct{}, len(seeds))
	for _, s := range seeds {
		seedSet[s.ContentID] = struct{}{}
	}

	// Candidates the user already watched recently are excluded here as
	// well as in the global filter, so they never soak up score budget.
	viewedSet := make(map[domain.ContentID]struct{})
	since := domain.ViewRecencyWindow(time.Now().UTC(), e.params.ViewRecencyWindow)
	viewed, err := e.interactions.GetRecentlyViewedContentIDs(ctx, userID, since, viewedFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching view history: %w", err)
	}
	for _, id := range viewed {
		viewedSet[id] = struct{}{}
	}

	// 2.-4. Neighbor expansion and weight accumulation. A neighbor
	// reachable through several seeds still counts once; corroboration
	// means independent neighbors, not repeated visits.
	candidates := make(map[domain.ContentID]*candidate)
	visited := map[domain.UserID]struct{}{userID: {}}

	for _, seed := range seeds {
		neighbors, err := e.interactions.GetUsersWhoInteracted(ctx, seed.ContentID, positive, e.params.NeighborLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching neighbors of %s: %w", seed.ContentID, err)
		}

		for _, neighbor := range neighbors {
			if _, ok := visited[neighbor]; ok {
				continue
			}
			visited[neighbor] = struct{}{}

			recs, err := e.interactions.GetContentsInteractedByUser(ctx, neighbor, positive, e.params.CandidateLimit)
			if err != nil {
				return nil, fmt.Errorf("expanding neighbor %s: %w", neighbor, err)
			}

			for _, rec := range recs {
				if _, ok := seedSet[rec.ContentID]; ok {
					continue
				}
				if _, ok := viewedSet[rec.ContentID]; ok {
					continue
				}
				c, ok := candidates[rec.ContentID]
				if !ok {
					c = &candidate{}
					candidates[rec.ContentID] = c
				}
				c.score += e.params.Weights.Of(rec.Kind)
				if rec.CreatedAt.After(c.lastAt) {
					c.lastAt = rec.CreatedAt
				}
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	// 5.-6. Metadata pass: language boost and category filters need the
	// catalog rows.
	ids := make([]domain.ContentID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	contents, err := e.contents.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate metadata: %w", err)
	}

	entries := make([]domain.FeedEntry, 0, len(contents))
	lastAt := make(map[domain.ContentID]time.Time, len(contents))
	for _, content := range contents {
		if q.IncludeCategory != "" && content.Category != q.IncludeCategory {
			continue
		}
		if q.ExcludeCategory != "" && content.Category == q.ExcludeCategory {
			continue
		}
		c := candidates[content.ID]
		score := c.score
		if q.Language != "" && content.Language == q.Language {
			score *= e.params.LanguageBoost
		}
		entries = append(entries, domain.FeedEntry{
			ContentID: content.ID,
			AuthorID:  content.AuthorID,
			Score:     score,
			Strategy:  domain.StrategyCF,
		})
		lastAt[content.ID] = c.lastAt
	}

	// 7. Deterministic order: score, then most recent contributing
	// interaction, then content id. Never depends on map iteration or
	// completion order.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ta, tb := lastAt[a.ContentID], lastAt[b.ContentID]
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return a.ContentID < b.ContentID
	})

	// 8. Truncate.
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	e.logger.Debug("cf recommendation computed",
		zap.String("user_id", string(userID)),
		zap.Int("seeds", len(seeds)),
		zap.Int("neighbors", len(visited)-1),
		zap.Int("results", len(entries)),
	)

	return entries, nil
}
