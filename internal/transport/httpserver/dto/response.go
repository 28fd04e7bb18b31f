package dto

import (
	"feed-engine-service/internal/app/service"
	"feed-engine-service/internal/domain"
)

// FeedEntryResponse represents a single ranked item in the feed.
type FeedEntryResponse struct {
	ContentID string  `json:"content_id"`
	AuthorID  string  `json:"author_id"`
	Score     float64 `json:"score"`
	Strategy  string  `json:"strategy"`
}

// FromFeedEntry converts domain.FeedEntry to FeedEntryResponse.
func FromFeedEntry(e domain.FeedEntry) FeedEntryResponse {
	return FeedEntryResponse{
		ContentID: string(e.ContentID),
		AuthorID:  string(e.AuthorID),
		Score:     e.Score,
		Strategy:  string(e.Strategy),
	}
}

// FeedPageResponse represents one page of the feed.
type FeedPageResponse struct {
	Entries    []FeedEntryResponse `json:"entries"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasNext    bool                `json:"has_next"`
}

// FromPage converts a service.Page to FeedPageResponse.
func FromPage(p *service.Page) FeedPageResponse {
	entries := make([]FeedEntryResponse, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = FromFeedEntry(e)
	}

	return FeedPageResponse{
		Entries:    entries,
		NextCursor: p.NextCursor,
		HasNext:    p.HasNext,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// StatsResponse represents dashboard stats.
type StatsResponse struct {
	TotalContents     int64 `json:"total_contents"`
	TotalInteractions int64 `json:"total_interactions"`
}
