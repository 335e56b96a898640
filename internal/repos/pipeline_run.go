package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/cinelake/cinelake-backend/internal/pkg/errors"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/types"
)

type PipelineRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.PipelineRun) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PipelineRun, error)
	MarkRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, tx *gorm.DB, id uuid.UUID, stats datatypes.JSON) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, runErr error) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]types.PipelineRun, error)
}

type pipelineRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPipelineRunRepo(db *gorm.DB, baseLog *logger.Logger) PipelineRunRepo {
	return &pipelineRunRepo{
		db:  db,
		log: baseLog.With("repo", "PipelineRunRepo"),
	}
}

func (r *pipelineRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.PipelineRun) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return pkgerrors.ErrInvalidArgument
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = types.PipelineRunQueued
	}
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now
	return transaction.WithContext(ctx).Create(run).Error
}

func (r *pipelineRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PipelineRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, pkgerrors.ErrInvalidArgument
	}
	var row types.PipelineRun
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

func (r *pipelineRunRepo) MarkRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.update(ctx, tx, id, map[string]any{
		"status":     types.PipelineRunRunning,
		"started_at": now,
		"updated_at": now,
	})
}

func (r *pipelineRunRepo) MarkSucceeded(ctx context.Context, tx *gorm.DB, id uuid.UUID, stats datatypes.JSON) error {
	now := time.Now().UTC()
	return r.update(ctx, tx, id, map[string]any{
		"status":      types.PipelineRunSucceeded,
		"stats":       stats,
		"finished_at": now,
		"updated_at":  now,
	})
}

func (r *pipelineRunRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, runErr error) error {
	now := time.Now().UTC()
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return r.update(ctx, tx, id, map[string]any{
		"status":      types.PipelineRunFailed,
		"error":       msg,
		"finished_at": now,
		"updated_at":  now,
	})
}

func (r *pipelineRunRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]types.PipelineRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []types.PipelineRun
	err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pipelineRunRepo) update(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return pkgerrors.ErrInvalidArgument
	}
	res := transaction.WithContext(ctx).
		Model(&types.PipelineRun{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
