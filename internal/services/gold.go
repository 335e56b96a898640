package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/types"
)

// GoldService reads the precomputed roll-ups. Queries never touch facts;
// the loader keeps the aggregate tables current.
type GoldService interface {
	RevenueByGenre(ctx context.Context) ([]types.RevenueByGenre, error)
	AvgScoreByYear(ctx context.Context) ([]types.AvgScoreByYear, error)
}

type goldService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoldService(db *gorm.DB, baseLog *logger.Logger) GoldService {
	return &goldService{
		db:  db,
		log: baseLog.With("service", "GoldService"),
	}
}

func (s *goldService) RevenueByGenre(ctx context.Context) ([]types.RevenueByGenre, error) {
	var rows []types.RevenueByGenre
	err := s.db.WithContext(ctxutil.Default(ctx)).
		Order("total_revenue DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *goldService) AvgScoreByYear(ctx context.Context) ([]types.AvgScoreByYear, error) {
	var rows []types.AvgScoreByYear
	err := s.db.WithContext(ctxutil.Default(ctx)).
		Order("year ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
