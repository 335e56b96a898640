package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinelake/cinelake-backend/internal/etl"
	"github.com/cinelake/cinelake-backend/internal/identity"
	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/types"
)

const pgUniqueViolation = "23505"

// LoaderService persists one transform pass into the star schema. The whole
// load runs in a single transaction: dimensions first, then bridges and
// facts with lineage ids remapped to the surrogate keys the database
// assigned, then a prune of rows the pass no longer produces, then the
// gold aggregates, then the lineage trail.
type LoaderService interface {
	Load(ctx context.Context, tables *etl.Tables, aggs *etl.Aggregates) (*LoadStats, error)
}

type LoadStats struct {
	RowCounts map[string]int `json:"row_counts"`
	Duration  string         `json:"duration"`
}

type loaderService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoaderService(db *gorm.DB, baseLog *logger.Logger) LoaderService {
	return &loaderService{
		db:  db,
		log: baseLog.With("service", "LoaderService"),
	}
}

func (s *loaderService) Load(ctx context.Context, tables *etl.Tables, aggs *etl.Aggregates) (*LoadStats, error) {
	if tables == nil {
		return nil, fmt.Errorf("nothing to load")
	}
	ctx = ctxutil.Default(ctx)
	start := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movieIDs, err := s.loadMovies(ctx, tx, tables.Movies)
		if err != nil {
			return fmt.Errorf("load dim_movie: %w", classifyLoadError(err))
		}
		dateIDs, err := s.loadDates(ctx, tx, tables.Dates)
		if err != nil {
			return fmt.Errorf("load dim_date: %w", classifyLoadError(err))
		}
		countryIDs, err := s.loadCountries(ctx, tx, tables.Countries)
		if err != nil {
			return fmt.Errorf("load dim_country: %w", classifyLoadError(err))
		}
		languageIDs, err := s.loadLanguages(ctx, tx, tables.Languages)
		if err != nil {
			return fmt.Errorf("load dim_language: %w", classifyLoadError(err))
		}
		genreIDs, err := s.loadGenres(ctx, tx, tables.Genres)
		if err != nil {
			return fmt.Errorf("load dim_genre: %w", classifyLoadError(err))
		}
		crewIDs, err := s.loadCrew(ctx, tx, tables.Crew)
		if err != nil {
			return fmt.Errorf("load dim_crew: %w", classifyLoadError(err))
		}

		if err := s.loadMovieGenres(ctx, tx, tables.MovieGenres, movieIDs, genreIDs); err != nil {
			return fmt.Errorf("load bridge_movie_genre: %w", classifyLoadError(err))
		}
		if err := s.loadMovieCrew(ctx, tx, tables.MovieCrew, movieIDs, crewIDs); err != nil {
			return fmt.Errorf("load bridge_movie_crew: %w", classifyLoadError(err))
		}
		if err := s.loadFacts(ctx, tx, tables.Facts, movieIDs, dateIDs, countryIDs, languageIDs); err != nil {
			return fmt.Errorf("load fact_movie_metrics: %w", classifyLoadError(err))
		}

		if err := s.pruneStale(ctx, tx, tables); err != nil {
			return fmt.Errorf("prune stale rows: %w", classifyLoadError(err))
		}

		if aggs != nil {
			if err := s.replaceAggregates(ctx, tx, aggs); err != nil {
				return fmt.Errorf("replace aggregates: %w", classifyLoadError(err))
			}
		}

		entries := tables.Lineage
		if aggs != nil {
			entries = append(entries, aggs.Lineage...)
		}
		if err := s.appendLineage(ctx, tx, entries); err != nil {
			return fmt.Errorf("append lineage: %w", classifyLoadError(err))
		}
		return nil
	})
	if err != nil {
		s.log.Error("Star schema load failed", "error", err)
		return nil, err
	}

	counts := tables.RowCounts()
	if aggs != nil {
		counts["revenue_by_genre"] = len(aggs.RevenueByGenre)
		counts["avg_score_by_year"] = len(aggs.AvgScoreByYear)
	}
	stats := &LoadStats{
		RowCounts: counts,
		Duration:  time.Since(start).String(),
	}
	s.log.Info("Star schema load committed",
		"duration", stats.Duration,
		"fact_rows", counts["fact_movie_metrics"])
	return stats, nil
}

// classifyLoadError surfaces unique violations as a distinct message; any
// duplicate arriving here means the transform's dedup missed something.
func classifyLoadError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("unexpected duplicate on %s: %w", pgErr.ConstraintName, err)
	}
	return err
}

func (s *loaderService) loadMovies(ctx context.Context, tx *gorm.DB, rows []etl.MovieRow) (map[string]int64, error) {
	now := time.Now().UTC()
	models := make([]types.DimMovie, 0, len(rows))
	for _, r := range rows {
		models = append(models, types.DimMovie{
			Name:      r.Name,
			OrigTitle: r.OrigTitle,
			Overview:  r.Overview,
			Status:    r.Status,
			LineageID: r.LineageID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(models) > 0 {
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}, {Name: "orig_title"}},
				DoUpdates: clause.AssignmentColumns([]string{"overview", "status", "lineage_id", "updated_at"}),
			}).
			Create(&models).Error
		if err != nil {
			return nil, err
		}
	}

	var persisted []types.DimMovie
	if err := tx.WithContext(ctx).Find(&persisted).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(persisted))
	for _, m := range persisted {
		ids[m.LineageID] = m.MovieID
	}
	return ids, nil
}

func (s *loaderService) loadDates(ctx context.Context, tx *gorm.DB, rows []etl.DateRow) (map[string]int64, error) {
	now := time.Now().UTC()
	models := make([]types.DimDate, 0, len(rows))
	for _, r := range rows {
		models = append(models, types.DimDate{
			ReleaseDate: r.ReleaseDate,
			Year:        r.Year,
			Month:       r.Month,
			Day:         r.Day,
			Quarter:     r.Quarter,
			LineageID:   r.LineageID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if len(models) > 0 {
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "year"}, {Name: "month"}, {Name: "day"}},
				DoUpdates: clause.AssignmentColumns([]string{"release_date", "quarter", "lineage_id", "updated_at"}),
			}).
			Create(&models).Error
		if err != nil {
			return nil, err
		}
	}

	var persisted []types.DimDate
	if err := tx.WithContext(ctx).Find(&persisted).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(persisted))
	for _, m := range persisted {
		ids[m.LineageID] = m.DateID
	}
	return ids, nil
}

func (s *loaderService) loadCountries(ctx context.Context, tx *gorm.DB, rows []etl.CountryRow) (map[string]int64, error) {
	now := time.Now().UTC()
	models := make([]types.DimCountry, 0, len(rows))
	for _, r := range rows {
		models = append(models, types.DimCountry{
			CountryName: r.CountryName,
			LineageID:   r.LineageID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if len(models) > 0 {
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "country_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"lineage_id", "updated_at"}),
			}).
			Create(&models).Error
		if err != nil {
			return nil, err
		}
	}

	var persisted []types.DimCountry
	if err := tx.WithContext(ctx).Find(&persisted).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(persisted))
	for _, m := range persisted {
		ids[m.LineageID] = m.CountryID
	}
	return ids, nil
}

func (s *loaderService) loadLanguages(ctx context.Context, tx *gorm.DB, rows []etl.LanguageRow) (map[string]int64, error) {
	now := time.Now().UTC()
	models := make([]types.DimLanguage, 0, len(rows))
	for _, r := range rows {
		models = append(models, types.DimLanguage{
			LanguageName: r.LanguageName,
			LineageID:    r.LineageID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if len(models) > 0 {
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "language_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"lineage_id", "updated_at"}),
			}).
			Create(&models).Error
		if err != nil {
			return nil, err
		}
	}

	var persisted []types.DimLanguage
	if err := tx.WithContext(ctx).Find(&persisted).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(persisted))
	for _, m := range persisted {
		ids[m.LineageID] = m.LanguageID
	}
	return ids, nil
}

func (s *loaderService) loadGenres(ctx context.Context, tx *gorm.DB, rows []etl.GenreRow) (map[string]int64, error) {
	now := time.Now().UTC()
	models := make([]types.DimGenre, 0, len(rows))
	for _, r := range rows {
		models = append(models, types.DimGenre{
			GenreName: r.GenreName,
			LineageID: r.LineageID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(models) > 0 {
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "genre_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"lineage_id", "updated_at"}),
			}).
			Create(&models).Error
		if err != nil {
			return nil, err
		}
	}

	var persisted []types.DimGenre
	if err := tx.WithContext(ctx).Find(&persisted).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(persisted))
	for _, m := range persisted {
		ids[m.LineageID] = m.GenreID
	}
	return ids, nil
}

func (s *loaderService) loadCrew(ctx context.Context, tx *gorm.DB, rows []etl.CrewRow) (map[string]int64, error) {
	now := time.Now().UTC()
	models := make([]types.DimCrew, 0, len(rows))
	for _, r := range rows {
		models = append(models, types.DimCrew{
			ActorName:     r.ActorName,
			CharacterName: r.CharacterName,
			LineageID:     r.LineageID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if len(models) > 0 {
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "actor_name"}, {Name: "character_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"lineage_id", "updated_at"}),
			}).
			Create(&models).Error
		if err != nil {
			return nil, err
		}
	}

	var persisted []types.DimCrew
	if err := tx.WithContext(ctx).Find(&persisted).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(persisted))
	for _, m := range persisted {
		ids[m.LineageID] = m.CrewID
	}
	return ids, nil
}

func (s *loaderService) loadMovieGenres(ctx context.Context, tx *gorm.DB, rows []etl.MovieGenreRow, movieIDs, genreIDs map[string]int64) error {
	now := time.Now().UTC()
	models := make([]types.BridgeMovieGenre, 0, len(rows))
	for _, r := range rows {
		movieID, okM := movieIDs[r.MovieLineageID]
		genreID, okG := genreIDs[r.GenreLineageID]
		if !okM || !okG {
			return fmt.Errorf("bridge references unknown dimension (movie=%q genre=%q)", r.MovieLineageID, r.GenreLineageID)
		}
		models = append(models, types.BridgeMovieGenre{
			MovieID:   movieID,
			GenreID:   genreID,
			LineageID: r.LineageID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(models) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "movie_id"}, {Name: "genre_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"lineage_id", "updated_at"}),
		}).
		Create(&models).Error
}

func (s *loaderService) loadMovieCrew(ctx context.Context, tx *gorm.DB, rows []etl.MovieCrewRow, movieIDs, crewIDs map[string]int64) error {
	now := time.Now().UTC()
	models := make([]types.BridgeMovieCrew, 0, len(rows))
	for _, r := range rows {
		movieID, okM := movieIDs[r.MovieLineageID]
		crewID, okC := crewIDs[r.CrewLineageID]
		if !okM || !okC {
			return fmt.Errorf("bridge references unknown dimension (movie=%q crew=%q)", r.MovieLineageID, r.CrewLineageID)
		}
		models = append(models, types.BridgeMovieCrew{
			MovieID:       movieID,
			CrewID:        crewID,
			CharacterName: r.CharacterName,
			LineageID:     r.LineageID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if len(models) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "movie_id"}, {Name: "crew_id"}, {Name: "character_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"lineage_id", "updated_at"}),
		}).
		Create(&models).Error
}

func (s *loaderService) loadFacts(ctx context.Context, tx *gorm.DB, rows []etl.FactRow, movieIDs, dateIDs, countryIDs, languageIDs map[string]int64) error {
	now := time.Now().UTC()
	models := make([]types.FactMovieMetrics, 0, len(rows))
	for _, r := range rows {
		movieID, okM := movieIDs[r.MovieLineageID]
		dateID, okD := dateIDs[r.DateLineageID]
		countryID, okC := countryIDs[r.CountryLineageID]
		languageID, okL := languageIDs[r.LanguageLineageID]
		if !okM || !okD || !okC || !okL {
			return fmt.Errorf("fact references unknown dimension (movie=%q)", r.MovieLineageID)
		}
		models = append(models, types.FactMovieMetrics{
			MovieID:    movieID,
			DateID:     dateID,
			CountryID:  countryID,
			LanguageID: languageID,
			Budget:     r.Budget,
			Revenue:    r.Revenue,
			Score:      r.Score,
			Profit:     r.Profit,
			LineageID:  r.LineageID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if len(models) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "movie_id"}, {Name: "date_id"}, {Name: "country_id"}, {Name: "language_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"budget", "revenue", "score", "profit", "lineage_id", "updated_at"}),
		}).
		Create(&models).Error
}

// pruneStale removes warehouse rows whose lineage ids the current pass no
// longer produces. Bronze is the source of truth: a record tombstoned or
// removed upstream must not linger in the star schema. Facts and bridges go
// first so dimensions are never pruned out from under them; the lineage log
// is append-only and never pruned.
func (s *loaderService) pruneStale(ctx context.Context, tx *gorm.DB, tables *etl.Tables) error {
	prune := func(model any, keep []string) error {
		q := tx.WithContext(ctx)
		if len(keep) == 0 {
			return q.Where("1 = 1").Delete(model).Error
		}
		return q.Where("lineage_id NOT IN ?", keep).Delete(model).Error
	}

	facts := make([]string, 0, len(tables.Facts))
	for _, r := range tables.Facts {
		facts = append(facts, r.LineageID)
	}
	if err := prune(&types.FactMovieMetrics{}, facts); err != nil {
		return err
	}

	movieGenres := make([]string, 0, len(tables.MovieGenres))
	for _, r := range tables.MovieGenres {
		movieGenres = append(movieGenres, r.LineageID)
	}
	if err := prune(&types.BridgeMovieGenre{}, movieGenres); err != nil {
		return err
	}

	movieCrew := make([]string, 0, len(tables.MovieCrew))
	for _, r := range tables.MovieCrew {
		movieCrew = append(movieCrew, r.LineageID)
	}
	if err := prune(&types.BridgeMovieCrew{}, movieCrew); err != nil {
		return err
	}

	movies := make([]string, 0, len(tables.Movies))
	for _, r := range tables.Movies {
		movies = append(movies, r.LineageID)
	}
	if err := prune(&types.DimMovie{}, movies); err != nil {
		return err
	}

	dates := make([]string, 0, len(tables.Dates))
	for _, r := range tables.Dates {
		dates = append(dates, r.LineageID)
	}
	if err := prune(&types.DimDate{}, dates); err != nil {
		return err
	}

	countries := make([]string, 0, len(tables.Countries))
	for _, r := range tables.Countries {
		countries = append(countries, r.LineageID)
	}
	if err := prune(&types.DimCountry{}, countries); err != nil {
		return err
	}

	languages := make([]string, 0, len(tables.Languages))
	for _, r := range tables.Languages {
		languages = append(languages, r.LineageID)
	}
	if err := prune(&types.DimLanguage{}, languages); err != nil {
		return err
	}

	genres := make([]string, 0, len(tables.Genres))
	for _, r := range tables.Genres {
		genres = append(genres, r.LineageID)
	}
	if err := prune(&types.DimGenre{}, genres); err != nil {
		return err
	}

	crew := make([]string, 0, len(tables.Crew))
	for _, r := range tables.Crew {
		crew = append(crew, r.LineageID)
	}
	return prune(&types.DimCrew{}, crew)
}

// replaceAggregates swaps the gold roll-up tables wholesale. Inside the load
// transaction readers never observe the empty intermediate state.
func (s *loaderService) replaceAggregates(ctx context.Context, tx *gorm.DB, aggs *etl.Aggregates) error {
	now := time.Now().UTC()

	if err := tx.WithContext(ctx).Where("1 = 1").Delete(&types.RevenueByGenre{}).Error; err != nil {
		return err
	}
	if len(aggs.RevenueByGenre) > 0 {
		models := make([]types.RevenueByGenre, 0, len(aggs.RevenueByGenre))
		for _, r := range aggs.RevenueByGenre {
			models = append(models, types.RevenueByGenre{
				GenreName:    r.GenreName,
				TotalRevenue: r.TotalRevenue,
				LineageID:    r.LineageID,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
		if err := tx.WithContext(ctx).Create(&models).Error; err != nil {
			return err
		}
	}

	if err := tx.WithContext(ctx).Where("1 = 1").Delete(&types.AvgScoreByYear{}).Error; err != nil {
		return err
	}
	if len(aggs.AvgScoreByYear) > 0 {
		models := make([]types.AvgScoreByYear, 0, len(aggs.AvgScoreByYear))
		for _, r := range aggs.AvgScoreByYear {
			models = append(models, types.AvgScoreByYear{
				Year:      r.Year,
				AvgScore:  r.AvgScore,
				LineageID: r.LineageID,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if err := tx.WithContext(ctx).Create(&models).Error; err != nil {
			return err
		}
	}
	return nil
}

// appendLineage inserts audit entries with DoNothing conflict handling;
// replayed transformations never rewrite history.
func (s *loaderService) appendLineage(ctx context.Context, tx *gorm.DB, entries []etl.LineageEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]types.LineageLog, 0, len(entries))
	seen := map[string]struct{}{}
	for _, e := range entries {
		id := identity.LogID(e.LineageID, e.Stage, e.Transformation)
		if _, dup := seen[id.String()]; dup {
			continue
		}
		seen[id.String()] = struct{}{}
		models = append(models, types.LineageLog{
			LineageLogID:   id,
			LineageID:      e.LineageID,
			SourcePath:     e.SourcePath,
			Stage:          e.Stage,
			Transformation: e.Transformation,
			Timestamp:      e.Timestamp,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models).Error
}
