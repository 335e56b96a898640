package services

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/cinelake/cinelake-backend/internal/pkg/errors"
	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/platform/typesense"
)

// SearchService fronts the search collection for read queries.
type SearchService interface {
	Search(ctx context.Context, query, genre string, page, perPage int) (*typesense.SearchResult, error)
}

type searchService struct {
	client typesense.Client
	log    *logger.Logger
}

func NewSearchService(client typesense.Client, baseLog *logger.Logger) SearchService {
	return &searchService{
		client: client,
		log:    baseLog.With("service", "SearchService"),
	}
}

func (s *searchService) Search(ctx context.Context, query, genre string, page, perPage int) (*typesense.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", pkgerrors.ErrInvalidArgument)
	}
	return s.client.Search(ctxutil.Default(ctx), typesense.SearchQuery{
		Query:       query,
		Page:        page,
		PerPage:     perPage,
		GenreFilter: strings.TrimSpace(genre),
	})
}
