// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// ContentID uniquely identifies a piece of published content.
// Immutable once published.
type ContentID string

// UserID uniquely identifies an account.
type UserID string

// Content represents one published short video.
type Content struct {
	ID       ContentID `json:"id"`
	AuthorID UserID    `json:"author_id"`

	// Metadata
	Title    string   `json:"title"`
	Language string   `json:"language"` // primary subtag, e.g. "en", "tr"
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// Playback
	DurationSeconds int `json:"duration_seconds,omitempty"`

	// Popularity is the interaction-weighted score over the trailing
	// window, maintained by the background refresher. Read-only on the
	// serving path.
	Popularity float64 `json:"popularity"`

	// Timestamps
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AgeDays returns the number of whole days since publication.
func (c *Content) AgeDays() int {
	days := time.Since(c.PublishedAt).Hours() / 24
	if days < 0 {
		return 0
	}
	return int(days)
}
