package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cinelake/cinelake-backend/internal/platform/envutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "cinelake")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...", "host", host, "database", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// AutoMigrateAll migrates the bronze, silver, gold and bookkeeping tables.
// Referential integrity across the star schema is enforced by the loader's
// surrogate-key remapping rather than database foreign keys, so migration
// skips FK constraints.
func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.BronzeMovie{},
		&types.DimMovie{},
		&types.DimDate{},
		&types.DimCountry{},
		&types.DimLanguage{},
		&types.DimGenre{},
		&types.DimCrew{},
		&types.BridgeMovieGenre{},
		&types.BridgeMovieCrew{},
		&types.FactMovieMetrics{},
		&types.RevenueByGenre{},
		&types.AvgScoreByYear{},
		&types.LineageLog{},
		&types.PipelineRun{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}
