package postgres

import (
	"time"

	"github.com/lib/pq"

	"feed-engine-service/internal/domain"
)

// ContentModel is the GORM model for the contents table.
type ContentModel struct {
	ID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuthorID string `gorm:"type:uuid;not null;index"`

	Title           string         `gorm:"type:varchar(500);not null"`
	Language        string         `gorm:"type:varchar(16);not null;index"`
	Category        string         `gorm:"type:varchar(50);index"`
	Tags            pq.StringArray `gorm:"type:text[]"`
	DurationSeconds int            `gorm:"default:0"`

	// Popularity is recomputed by the background refresher; the serving
	// path only reads it.
	Popularity float64 `gorm:"type:decimal(12,4);default:0;index"`

	PublishedAt time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ContentModel.
func (ContentModel) TableName() string {
	return "contents"
}

// ToDomain converts ContentModel to domain.Content.
func (m *ContentModel) ToDomain() *domain.Content {
	return &domain.Content{
		ID:              domain.ContentID(m.ID),
		AuthorID:        domain.UserID(m.AuthorID),
		Title:           m.Title,
		Language:        m.Language,
		Category:        m.Category,
		Tags:            m.Tags,
		DurationSeconds: m.DurationSeconds,
		Popularity:      m.Popularity,
		PublishedAt:     m.PublishedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain converts domain.Content to ContentModel.
func FromDomain(c *domain.Content) *ContentModel {
	return &ContentModel{
		ID:              string(c.ID),
		AuthorID:        string(c.AuthorID),
		Title:           c.Title,
		Language:        c.Language,
		Category:        c.Category,
		Tags:            c.Tags,
		DurationSeconds: c.DurationSeconds,
		Popularity:      c.Popularity,
		PublishedAt:     c.PublishedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// InteractionModel is the GORM model for the interactions table.
// Append-only: rows are inserted by the interaction ingest path and
// never updated here.
type InteractionModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_interactions_user_kind_time,priority:1"`
	ContentID string    `gorm:"type:uuid;not null;index:idx_interactions_content_kind,priority:1"`
	Kind      string    `gorm:"type:varchar(10);not null;index:idx_interactions_user_kind_time,priority:2;index:idx_interactions_content_kind,priority:2"`
	CreatedAt time.Time `gorm:"not null;index:idx_interactions_user_kind_time,priority:3,sort:desc"`
}

// TableName returns the table name for InteractionModel.
func (InteractionModel) TableName() string {
	return "interactions"
}

// ToDomain converts InteractionModel to domain.InteractionRecord.
func (m *InteractionModel) ToDomain() domain.InteractionRecord {
	return domain.InteractionRecord{
		UserID:    domain.UserID(m.UserID),
		ContentID: domain.ContentID(m.ContentID),
		Kind:      domain.InteractionKind(m.Kind),
		CreatedAt: m.CreatedAt,
	}
}
