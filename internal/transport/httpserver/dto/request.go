// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"feed-engine-service/internal/app/service"
	"feed-engine-service/internal/domain"
)

// FeedRequest represents the query parameters for a feed page.
type FeedRequest struct {
	Category string `query:"category" validate:"omitempty,max=50"`
	Language string `query:"lang" validate:"omitempty,max=16"`
	Cursor   string `query:"cursor" validate:"omitempty,max=200"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=50"`
}

// ToPageRequest converts FeedRequest to a service.PageRequest for the
// given user, applying the default page size when the client sent none.
func (r *FeedRequest) ToPageRequest(userID domain.UserID, defaultLimit int) service.PageRequest {
	limit := r.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	return service.PageRequest{
		UserID:   userID,
		Category: r.Category,
		Language: r.Language,
		Cursor:   r.Cursor,
		Limit:    limit,
	}
}

// RefreshRequest represents the query parameters for a feed refresh.
type RefreshRequest struct {
	Category string `query:"category" validate:"omitempty,max=50"`
}
