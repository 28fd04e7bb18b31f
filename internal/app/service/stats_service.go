package service

import (
	"context"

	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

// StatsService exposes the catalog counters shown on the ops dashboard.
type StatsService struct {
	contents     domain.ContentStore
	interactions domain.InteractionStore
	logger       *zap.Logger
}

// NewStatsService creates a StatsService.
func NewStatsService(contents domain.ContentStore, interactions domain.InteractionStore, logger *zap.Logger) *StatsService {
	return &StatsService{
		contents:     contents,
		interactions: interactions,
		logger:       logger,
	}
}

// Stats holds catalog counters.
type Stats struct {
	Contents     int64
	Interactions int64
}

// Collect gathers the current counters.
func (s *StatsService) Collect(ctx context.Context) (*Stats, error) {
	contents, err := s.contents.CountContents(ctx)
	if err != nil {
		s.logger.Error("counting contents failed", zap.Error(err))
		return nil, err
	}
	interactions, err := s.interactions.CountInteractions(ctx)
	if err != nil {
		s.logger.Error("counting interactions failed", zap.Error(err))
		return nil, err
	}
	return &Stats{Contents: contents, Interactions: interactions}, nil
}
