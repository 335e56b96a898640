package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/cinelake/cinelake-backend/internal/pkg/errors"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/types"
)

// MergeResult reports what one batch merge actually changed.
type MergeResult struct {
	Received int
	Added    int
	Updated  int
}

type BronzeMovieRepo interface {
	Merge(ctx context.Context, tx *gorm.DB, rows []types.BronzeMovie) (MergeResult, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BronzeMovie, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.BronzeMovie, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, row *types.BronzeMovie) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListActive(ctx context.Context, tx *gorm.DB) ([]types.BronzeMovie, error)
	ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]types.BronzeMovie, int64, error)
}

type bronzeMovieRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBronzeMovieRepo(db *gorm.DB, baseLog *logger.Logger) BronzeMovieRepo {
	return &bronzeMovieRepo{
		db:  db,
		log: baseLog.With("repo", "BronzeMovieRepo"),
	}
}

// Merge upserts a batch keyed on content identity. Duplicate identities
// within the batch keep the most recently added version. Re-ingesting an
// already stored record counts as an update, not an add, so callers can
// tell whether a batch brought anything genuinely new.
func (r *bronzeMovieRepo) Merge(ctx context.Context, tx *gorm.DB, rows []types.BronzeMovie) (MergeResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	result := MergeResult{Received: len(rows)}
	if len(rows) == 0 {
		return result, nil
	}

	// Within-batch duplicates collapse onto the last occurrence before the
	// upsert; a single statement must not touch the same id twice.
	byID := make(map[uuid.UUID]int, len(rows))
	deduped := make([]types.BronzeMovie, 0, len(rows))
	for _, row := range rows {
		if at, dup := byID[row.ID]; dup {
			deduped[at] = row
			continue
		}
		byID[row.ID] = len(deduped)
		deduped = append(deduped, row)
	}
	rows = deduped

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var existing []uuid.UUID
	err := transaction.WithContext(ctx).
		Model(&types.BronzeMovie{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	if err != nil {
		return result, err
	}
	known := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}

	now := time.Now().UTC()
	for i := range rows {
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
		if _, ok := known[rows[i].ID]; ok {
			result.Updated++
		} else {
			result.Added++
		}
	}

	err = transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "orig_title", "overview", "status", "release_date",
				"genre", "crew", "country", "orig_lang",
				"budget", "revenue", "score", "is_deleted", "updated_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		r.log.Error("Bronze merge failed", "received", result.Received, "error", err)
		return MergeResult{Received: result.Received}, err
	}
	return result, nil
}

func (r *bronzeMovieRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BronzeMovie, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, pkgerrors.ErrInvalidArgument
	}
	var row types.BronzeMovie
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, pkgerrors.ErrNotFound
	}
	return &row, nil
}

func (r *bronzeMovieRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.BronzeMovie, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, pkgerrors.ErrInvalidArgument
	}
	var row types.BronzeMovie
	err := transaction.WithContext(ctx).
		Where("name = ? AND is_deleted = ?", name, false).
		Order("updated_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, pkgerrors.ErrNotFound
	}
	return &row, nil
}

func (r *bronzeMovieRepo) UpdateByID(ctx context.Context, tx *gorm.DB, row *types.BronzeMovie) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	row.UpdatedAt = time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.BronzeMovie{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"name":         row.Name,
			"orig_title":   row.OrigTitle,
			"overview":     row.Overview,
			"status":       row.Status,
			"release_date": row.ReleaseDate,
			"genre":        row.Genre,
			"crew":         row.Crew,
			"country":      row.Country,
			"orig_lang":    row.OrigLang,
			"budget":       row.Budget,
			"revenue":      row.Revenue,
			"score":        row.Score,
			"is_deleted":   row.IsDeleted,
			"updated_at":   row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

// SoftDeleteByID tombstones a record. The row survives so the next pipeline
// pass can propagate the deletion to the search index before hard removal.
func (r *bronzeMovieRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	res := transaction.WithContext(ctx).
		Model(&types.BronzeMovie{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted": true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *bronzeMovieRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.BronzeMovie{}).Error
}

func (r *bronzeMovieRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]types.BronzeMovie, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.BronzeMovie
	err := transaction.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bronzeMovieRepo) ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]types.BronzeMovie, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var total int64
	err := transaction.WithContext(ctx).
		Model(&types.BronzeMovie{}).
		Where("is_deleted = ?", false).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	var rows []types.BronzeMovie
	err = transaction.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
