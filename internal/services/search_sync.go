package services

import (
	"context"

	"github.com/cinelake/cinelake-backend/internal/etl"
	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/platform/typesense"
	"github.com/cinelake/cinelake-backend/internal/repos"
	"github.com/cinelake/cinelake-backend/internal/types"
)

const syncBatchSize = 250

// SearchSyncService keeps the search collection in step with the bronze
// store. Full syncs rebuild the collection from committed rows only; the
// delta path indexes or removes one document as mutations land.
type SearchSyncService interface {
	FullSync(ctx context.Context) (int, error)
	IndexOne(ctx context.Context, row *types.BronzeMovie) error
	DeleteOne(ctx context.Context, id string) error
}

type searchSyncService struct {
	bronze repos.BronzeMovieRepo
	search typesense.Client
	log    *logger.Logger
}

func NewSearchSyncService(bronze repos.BronzeMovieRepo, search typesense.Client, baseLog *logger.Logger) SearchSyncService {
	return &searchSyncService{
		bronze: bronze,
		search: search,
		log:    baseLog.With("service", "SearchSyncService"),
	}
}

// FullSync recreates the collection and re-imports every active bronze row
// in batches. It reads from the store, never from in-flight request
// payloads, so the index only ever reflects committed state.
func (s *searchSyncService) FullSync(ctx context.Context) (int, error) {
	ctx = ctxutil.Default(ctx)

	if err := s.search.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	rows, err := s.bronze.ListActive(ctx, nil)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for start := 0; start < len(rows); start += syncBatchSize {
		end := start + syncBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		docs := make([]typesense.Document, 0, end-start)
		for _, row := range rows[start:end] {
			docs = append(docs, documentFromBronze(&row))
		}
		if err := s.search.ImportDocuments(ctx, docs); err != nil {
			return indexed, err
		}
		indexed += len(docs)
	}

	s.log.Info("Search full sync complete", "documents", indexed)
	return indexed, nil
}

func (s *searchSyncService) IndexOne(ctx context.Context, row *types.BronzeMovie) error {
	if row == nil {
		return nil
	}
	if row.IsDeleted {
		return s.DeleteOne(ctx, row.ID.String())
	}
	doc := documentFromBronze(row)
	return s.search.UpsertDocument(ctxutil.Default(ctx), doc)
}

func (s *searchSyncService) DeleteOne(ctx context.Context, id string) error {
	return s.search.DeleteDocument(ctxutil.Default(ctx), id)
}

// documentFromBronze denormalizes one bronze row with the same parsers the
// silver transform uses, so search and warehouse never disagree on genre
// splits or crew pairing.
func documentFromBronze(row *types.BronzeMovie) typesense.Document {
	crew := make([]typesense.CrewCredit, 0, 4)
	for _, member := range etl.SplitCrew(row.Crew) {
		crew = append(crew, typesense.CrewCredit{
			ActorName:     member.ActorName,
			CharacterName: member.CharacterName,
		})
	}
	genres := etl.SplitGenres(row.Genre)
	if genres == nil {
		genres = []string{}
	}
	return typesense.Document{
		ID:          row.ID.String(),
		Name:        row.Name,
		OrigTitle:   row.OrigTitle,
		Overview:    row.Overview,
		Status:      row.Status,
		ReleaseDate: row.ReleaseDate,
		Genres:      genres,
		Crew:        crew,
		Country:     row.Country,
		Language:    row.OrigLang,
		Budget:      floatValue(row.Budget),
		Revenue:     floatValue(row.Revenue),
		Score:       floatValue(row.Score),
		IsDeleted:   row.IsDeleted,
	}
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
