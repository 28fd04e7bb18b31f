package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feed-engine-service/internal/domain"
)

// Repository implements domain.InteractionStore and domain.ContentStore
// using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetPositiveInteractions returns the user's interactions of the given
// kinds, newest first.
func (r *Repository) GetPositiveInteractions(ctx context.Context, userID domain.UserID, kinds []domain.InteractionKind, limit int) ([]domain.InteractionRecord, error) {
	var models []InteractionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind IN ?", string(userID), kindStrings(kinds)).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("fetching interactions for user %s: %w", userID, err)
	}

	return toRecords(models), nil
}

// GetUsersWhoInteracted returns users who interacted with the content
// with any of the given kinds, ordered by their most recent interaction.
func (r *Repository) GetUsersWhoInteracted(ctx context.Context, contentID domain.ContentID, kinds []domain.InteractionKind, limit int) ([]domain.UserID, error) {
	var rows []struct {
		UserID string
		LastAt time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&InteractionModel{}).
		Select("user_id, MAX(created_at) AS last_at").
		Where("content_id = ? AND kind IN ?", string(contentID), kindStrings(kinds)).
		Group("user_id").
		Order("last_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetching users for content %s: %w", contentID, err)
	}

	users := make([]domain.UserID, len(rows))
	for i, row := range rows {
		users[i] = domain.UserID(row.UserID)
	}
	return users, nil
}

// GetContentsInteractedByUser returns the user's interactions of the
// given kinds, newest first. Same query as GetPositiveInteractions; the
// separate method keeps the neighbor-expansion call site honest about
// whose history it reads.
func (r *Repository) GetContentsInteractedByUser(ctx context.Context, userID domain.UserID, kinds []domain.InteractionKind, limit int) ([]domain.InteractionRecord, error) {
	return r.GetPositiveInteractions(ctx, userID, kinds, limit)
}

// GetRecentlyViewedContentIDs returns distinct content the user viewed
// since the cutoff, most recently viewed first.
func (r *Repository) GetRecentlyViewedContentIDs(ctx context.Context, userID domain.UserID, since time.Time, limit int) ([]domain.ContentID, error) {
	var rows []struct {
		ContentID string
		LastAt    time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&InteractionModel{}).
		Select("content_id, MAX(created_at) AS last_at").
		Where("user_id = ? AND kind = ? AND created_at >= ?", string(userID), string(domain.InteractionView), since).
		Group("content_id").
		Order("last_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetching view history for user %s: %w", userID, err)
	}

	ids := make([]domain.ContentID, len(rows))
	for i, row := range rows {
		ids[i] = domain.ContentID(row.ContentID)
	}
	return ids, nil
}

// CountInteractions returns the total number of interaction rows.
func (r *Repository) CountInteractions(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&InteractionModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting interactions: %w", err)
	}
	return count, nil
}

// RecordInteraction appends one interaction row. Used by the ingest
// path and by tests; the feed engine itself only reads.
func (r *Repository) RecordInteraction(ctx context.Context, rec domain.InteractionRecord) error {
	model := InteractionModel{
		UserID:    string(rec.UserID),
		ContentID: string(rec.ContentID),
		Kind:      string(rec.Kind),
		CreatedAt: rec.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("recording interaction: %w", err)
	}
	return nil
}

// GetByIDs returns metadata for the given contents. Missing ids are
// silently omitted.
func (r *Repository) GetByIDs(ctx context.Context, ids []domain.ContentID) ([]*domain.Content, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}

	var models []ContentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", raw).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("fetching contents by id: %w", err)
	}

	return toContents(models), nil
}

// ListPopular returns contents ordered by popularity, preferring the
// requested language, ties broken by publish recency.
func (r *Repository) ListPopular(ctx context.Context, q domain.ContentQuery) ([]*domain.Content, error) {
	query := r.filteredContents(ctx, q)
	query = r.applyOrdering(query, q.Language, "popularity DESC, published_at DESC")

	var models []ContentModel
	err := query.
		Limit(q.Limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing popular contents: %w", err)
	}

	return toContents(models), nil
}

// ListNewest returns contents by publish timestamp descending,
// preferring the requested language.
func (r *Repository) ListNewest(ctx context.Context, q domain.ContentQuery) ([]*domain.Content, error) {
	query := r.filteredContents(ctx, q)
	query = r.applyOrdering(query, q.Language, "published_at DESC")

	var models []ContentModel
	err := query.
		Limit(q.Limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing newest contents: %w", err)
	}

	return toContents(models), nil
}

// ListRandom returns a uniform sample over the whole eligible set.
// ORDER BY RANDOM() scans every eligible row, so the sample is not
// biased toward older rows the way a LIMIT over insertion order is.
// No language preference here: preferring would skew the sample.
func (r *Repository) ListRandom(ctx context.Context, q domain.ContentQuery) ([]*domain.Content, error) {
	var models []ContentModel
	err := r.filteredContents(ctx, q).
		Order("RANDOM()").
		Limit(q.Limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing random contents: %w", err)
	}

	return toContents(models), nil
}

// RefreshPopularity recomputes every content's popularity as the
// weighted sum of its interactions inside the trailing window. Contents
// without recent interactions decay to zero.
func (r *Repository) RefreshPopularity(ctx context.Context, window time.Duration, weights domain.InteractionWeights) (int64, error) {
	since := time.Now().UTC().Add(-window)

	result := r.db.WithContext(ctx).Exec(`
		UPDATE contents c SET popularity = COALESCE((
			SELECT SUM(CASE i.kind
				WHEN 'like' THEN ?::numeric
				WHEN 'save' THEN ?::numeric
				WHEN 'share' THEN ?::numeric
				WHEN 'view' THEN ?::numeric
				ELSE 0 END)
			FROM interactions i
			WHERE i.content_id = c.id AND i.created_at >= ?
		), 0), updated_at = NOW()`,
		weights.Of(domain.InteractionLike),
		weights.Of(domain.InteractionSave),
		weights.Of(domain.InteractionShare),
		weights.Of(domain.InteractionView),
		since,
	)
	if result.Error != nil {
		return 0, fmt.Errorf("refreshing popularity: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CountContents returns the total number of contents.
func (r *Repository) CountContents(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ContentModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting contents: %w", err)
	}
	return count, nil
}

// UpsertContent creates or updates one content row. Used by the ingest
// path and by tests.
func (r *Repository) UpsertContent(ctx context.Context, content *domain.Content) error {
	model := FromDomain(content)
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "language", "category", "tags", "duration_seconds",
			"popularity", "published_at", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("upserting content: %w", err)
	}

	content.ID = domain.ContentID(model.ID)
	content.CreatedAt = model.CreatedAt
	content.UpdatedAt = model.UpdatedAt

	return nil
}

// filteredContents builds the WHERE clause shared by every listing.
// All parameters are bound through GORM's parameterized queries.
func (r *Repository) filteredContents(ctx context.Context, q domain.ContentQuery) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&ContentModel{})
	if q.IncludeCategory != "" {
		query = query.Where("category = ?", q.IncludeCategory)
	}
	if q.ExcludeCategory != "" {
		query = query.Where("category <> ?", q.ExcludeCategory)
	}
	return query
}

// applyOrdering adds the ORDER BY clause, ranking matching-language
// rows first without excluding the rest. The language value is bound,
// never interpolated; base comes from call sites only.
func (r *Repository) applyOrdering(query *gorm.DB, language, base string) *gorm.DB {
	if language == "" {
		return query.Order(base)
	}
	return query.Clauses(clause.OrderBy{
		Expression: gorm.Expr("CASE WHEN language = ? THEN 0 ELSE 1 END, "+base, language),
	})
}

func kindStrings(kinds []domain.InteractionKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func toRecords(models []InteractionModel) []domain.InteractionRecord {
	records := make([]domain.InteractionRecord, len(models))
	for i, m := range models {
		records[i] = m.ToDomain()
	}
	return records
}

func toContents(models []ContentModel) []*domain.Content {
	contents := make([]*domain.Content, len(models))
	for i, m := range models {
		contents[i] = m.ToDomain()
	}
	return contents
}
