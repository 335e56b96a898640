package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cinelake/cinelake-backend/internal/etl"
	"github.com/cinelake/cinelake-backend/internal/identity"
	"github.com/cinelake/cinelake-backend/internal/observability"
	pkgerrors "github.com/cinelake/cinelake-backend/internal/pkg/errors"
	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/repos"
	"github.com/cinelake/cinelake-backend/internal/types"
)

// MovieInput is the mutation payload for the raw-data endpoints. Only the
// title is mandatory; everything else degrades to empty or null.
type MovieInput struct {
	Name        string `json:"name" validate:"required"`
	OrigTitle   string `json:"orig_title"`
	Overview    string `json:"overview"`
	Status      string `json:"status"`
	ReleaseDate string `json:"release_date"`
	Genre       string `json:"genre"`
	Crew        string `json:"crew"`
	Country     string `json:"country"`
	OrigLang    string `json:"orig_lang"`
	Budget      any    `json:"budget"`
	Revenue     any    `json:"revenue"`
	Score       any    `json:"score"`
}

// IngestResult summarizes one batch ingest. Rejected counts records that
// were dropped before identity assignment; Missing names the mandatory
// fields they lacked.
type IngestResult struct {
	Received int      `json:"received"`
	Added    int      `json:"added"`
	Updated  int      `json:"updated"`
	Rejected int      `json:"rejected,omitempty"`
	Missing  []string `json:"missing_fields,omitempty"`
}

type BronzeService interface {
	IngestBatch(ctx context.Context, records []map[string]any, sourcePath string) (*IngestResult, *types.PipelineRun, error)
	Create(ctx context.Context, input MovieInput) (*types.BronzeMovie, *types.PipelineRun, error)
	Update(ctx context.Context, lookup Lookup, input MovieInput) (*types.BronzeMovie, *types.PipelineRun, error)
	Delete(ctx context.Context, lookup Lookup) (*types.PipelineRun, error)
	Get(ctx context.Context, lookup Lookup) (*types.BronzeMovie, error)
	List(ctx context.Context, offset, limit int) ([]types.BronzeMovie, int64, error)
}

type bronzeService struct {
	bronze   repos.BronzeMovieRepo
	assigner *identity.Assigner
	sync     SearchSyncService
	pipeline PipelineService
	validate *validator.Validate
	metrics  *observability.Metrics
	log      *logger.Logger
}

func NewBronzeService(
	bronze repos.BronzeMovieRepo,
	assigner *identity.Assigner,
	searchSync SearchSyncService,
	pipeline PipelineService,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) BronzeService {
	return &bronzeService{
		bronze:   bronze,
		assigner: assigner,
		sync:     searchSync,
		pipeline: pipeline,
		validate: validator.New(),
		metrics:  metrics,
		log:      baseLog.With("service", "BronzeService"),
	}
}

func (s *bronzeService) countMerged(res repos.MergeResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.BronzeMerged.WithLabelValues("added").Add(float64(res.Added))
	s.metrics.BronzeMerged.WithLabelValues("updated").Add(float64(res.Updated))
}

// IngestBatch resolves aliases, assigns identities and merges the batch.
// The batch is rejected whole when no record carries a title or date
// anchor; a record missing any mandatory field is dropped before identity
// assignment. A pipeline run is scheduled only when the merge changed
// something.
func (s *bronzeService) IngestBatch(ctx context.Context, records []map[string]any, sourcePath string) (*IngestResult, *types.PipelineRun, error) {
	ctx = ctxutil.Default(ctx)
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty batch", pkgerrors.ErrInvalidArgument)
	}
	if !etl.HasTitleField(records) {
		return nil, nil, fmt.Errorf("%w: no record carries a title field", pkgerrors.ErrInvalidArgument)
	}
	if !etl.HasDateField(records) {
		return nil, nil, fmt.Errorf("%w: no record carries a release-date field", pkgerrors.ErrInvalidArgument)
	}

	missing := map[string]struct{}{}
	rejected := 0
	rows := make([]types.BronzeMovie, 0, len(records))
	for _, record := range records {
		resolved, absent := etl.ResolveAliases(record)
		if len(absent) > 0 {
			for _, f := range absent {
				missing[f] = struct{}{}
			}
			rejected++
			continue
		}
		raw := etl.FromMap(resolved)
		if raw.Name == "" && raw.OrigTitle == "" {
			rejected++
			continue
		}
		raw.ID = s.assigner.Assign(raw.IdentityFields())
		rows = append(rows, bronzeFromRaw(raw))
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no usable records in batch", pkgerrors.ErrInvalidArgument)
	}

	merged, err := s.bronze.Merge(ctx, nil, rows)
	if err != nil {
		return nil, nil, err
	}
	s.countMerged(merged)

	result := &IngestResult{
		Received: len(records),
		Added:    merged.Added,
		Updated:  merged.Updated,
		Rejected: rejected,
	}
	for f := range missing {
		result.Missing = append(result.Missing, f)
	}

	var run *types.PipelineRun
	if merged.Added > 0 || merged.Updated > 0 {
		run, err = s.pipeline.Schedule(ctx, "seed")
		if err != nil {
			return result, nil, err
		}
	}
	s.log.Info("Batch ingested",
		"source", sourcePath,
		"received", result.Received,
		"added", result.Added,
		"updated", result.Updated,
		"rejected", result.Rejected)
	return result, run, nil
}

func (s *bronzeService) Create(ctx context.Context, input MovieInput) (*types.BronzeMovie, *types.PipelineRun, error) {
	ctx = ctxutil.Default(ctx)
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
	}

	raw := rawFromInput(input)
	raw.ID = s.assigner.Assign(raw.IdentityFields())
	row := bronzeFromRaw(raw)

	merged, err := s.bronze.Merge(ctx, nil, []types.BronzeMovie{row})
	if err != nil {
		return nil, nil, err
	}
	s.countMerged(merged)
	stored, err := s.bronze.GetByID(ctx, nil, row.ID)
	if err != nil {
		return nil, nil, err
	}

	return stored, s.afterMutation(ctx, stored, "create"), nil
}

// Update mutates attributes in place. The identity assigned at first ingest
// is kept even when the title changes.
func (s *bronzeService) Update(ctx context.Context, lookup Lookup, input MovieInput) (*types.BronzeMovie, *types.PipelineRun, error) {
	ctx = ctxutil.Default(ctx)
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
	}
	existing, err := s.resolve(ctx, lookup)
	if err != nil {
		return nil, nil, err
	}

	raw := rawFromInput(input)
	updated := bronzeFromRaw(raw)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := s.bronze.UpdateByID(ctx, nil, &updated); err != nil {
		return nil, nil, err
	}
	stored, err := s.bronze.GetByID(ctx, nil, existing.ID)
	if err != nil {
		return nil, nil, err
	}

	return stored, s.afterMutation(ctx, stored, "update"), nil
}

// Delete tombstones the record; the search document is removed immediately
// and the pipeline pass prunes the warehouse.
func (s *bronzeService) Delete(ctx context.Context, lookup Lookup) (*types.PipelineRun, error) {
	ctx = ctxutil.Default(ctx)
	existing, err := s.resolve(ctx, lookup)
	if err != nil {
		return nil, err
	}
	if err := s.bronze.SoftDeleteByID(ctx, nil, existing.ID); err != nil {
		return nil, err
	}
	existing.IsDeleted = true
	return s.afterMutation(ctx, existing, "delete"), nil
}

func (s *bronzeService) Get(ctx context.Context, lookup Lookup) (*types.BronzeMovie, error) {
	return s.resolve(ctxutil.Default(ctx), lookup)
}

func (s *bronzeService) List(ctx context.Context, offset, limit int) ([]types.BronzeMovie, int64, error) {
	return s.bronze.ListPage(ctxutil.Default(ctx), nil, offset, limit)
}

// afterMutation fans out the delta index update and the full pipeline run.
// Both branches always execute; their failures are joined so a search
// hiccup never masks a pipeline scheduling failure or vice versa. The fan
// out is best-effort: the raw row is already persisted, so failures are
// logged but never surfaced to the caller.
func (s *bronzeService) afterMutation(ctx context.Context, row *types.BronzeMovie, trigger string) *types.PipelineRun {
	var (
		wg       sync.WaitGroup
		indexErr error
		run      *types.PipelineRun
		schedErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		indexErr = s.sync.IndexOne(ctx, row)
	}()
	go func() {
		defer wg.Done()
		run, schedErr = s.pipeline.Schedule(ctx, trigger)
	}()
	wg.Wait()

	if err := errors.Join(indexErr, schedErr); err != nil {
		s.log.Error("Post-mutation fan-out failed", "trigger", trigger, "error", err)
	}
	return run
}

func (s *bronzeService) resolve(ctx context.Context, lookup Lookup) (*types.BronzeMovie, error) {
	if lookup.byName {
		return s.bronze.GetByName(ctx, nil, lookup.name)
	}
	if lookup.id == uuid.Nil {
		return nil, pkgerrors.ErrInvalidArgument
	}
	return s.bronze.GetByID(ctx, nil, lookup.id)
}

func rawFromInput(input MovieInput) etl.RawRecord {
	return etl.FromMap(map[string]any{
		"name":         input.Name,
		"orig_title":   input.OrigTitle,
		"overview":     input.Overview,
		"status":       input.Status,
		"release_date": input.ReleaseDate,
		"genre":        input.Genre,
		"crew":         input.Crew,
		"country":      input.Country,
		"orig_lang":    input.OrigLang,
		"budget":       input.Budget,
		"revenue":      input.Revenue,
		"score":        input.Score,
	})
}

func bronzeFromRaw(raw etl.RawRecord) types.BronzeMovie {
	return types.BronzeMovie{
		ID:          raw.ID,
		Name:        raw.Name,
		OrigTitle:   raw.OrigTitle,
		Overview:    raw.Overview,
		Status:      raw.Status,
		ReleaseDate: raw.ReleaseDate,
		Genre:       raw.Genre,
		Crew:        raw.Crew,
		Country:     raw.Country,
		OrigLang:    raw.OrigLang,
		Budget:      raw.Budget,
		Revenue:     raw.Revenue,
		Score:       raw.Score,
	}
}
