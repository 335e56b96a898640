package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"gorm.io/datatypes"

	"github.com/cinelake/cinelake-backend/internal/etl"
	"github.com/cinelake/cinelake-backend/internal/observability"
	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/repos"
	"github.com/cinelake/cinelake-backend/internal/types"
)

const defaultRunTimeout = 10 * time.Minute

// PipelineService schedules and executes full bronze-to-gold passes. Runs
// execute in the background one at a time; callers get the run row back
// immediately and poll its status.
type PipelineService interface {
	Schedule(ctx context.Context, trigger string) (*types.PipelineRun, error)
	RunNow(ctx context.Context, trigger string) (*types.PipelineRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*types.PipelineRun, error)
	RunStatus(ctx context.Context, id uuid.UUID) (string, error)
}

type pipelineService struct {
	bronze  repos.BronzeMovieRepo
	runs    repos.PipelineRunRepo
	loader  LoaderService
	search  SearchSyncService
	status  *RunStatusStore
	metrics *observability.Metrics
	// single-flight guard over the transform/load critical section
	flight  *semaphore.Weighted
	timeout time.Duration
	log     *logger.Logger
}

func NewPipelineService(
	bronze repos.BronzeMovieRepo,
	runs repos.PipelineRunRepo,
	loader LoaderService,
	search SearchSyncService,
	status *RunStatusStore,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) PipelineService {
	return &pipelineService{
		bronze:  bronze,
		runs:    runs,
		loader:  loader,
		search:  search,
		status:  status,
		metrics: metrics,
		flight:  semaphore.NewWeighted(1),
		timeout: defaultRunTimeout,
		log:     baseLog.With("service", "PipelineService"),
	}
}

// Schedule records a queued run and executes it asynchronously. Concurrent
// schedules queue behind the in-flight run rather than overlapping it.
func (s *pipelineService) Schedule(ctx context.Context, trigger string) (*types.PipelineRun, error) {
	run := &types.PipelineRun{Trigger: trigger}
	if err := s.runs.Create(ctxutil.Default(ctx), nil, run); err != nil {
		return nil, err
	}
	s.status.Set(ctx, run.ID.String(), types.PipelineRunQueued)

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.execute(runCtx, run)
	}()
	return run, nil
}

// RunNow executes synchronously. Seed ingest uses Schedule; RunNow exists
// for operational re-runs where the caller wants the outcome in-band.
func (s *pipelineService) RunNow(ctx context.Context, trigger string) (*types.PipelineRun, error) {
	ctx = ctxutil.Default(ctx)
	run := &types.PipelineRun{Trigger: trigger}
	if err := s.runs.Create(ctx, nil, run); err != nil {
		return nil, err
	}
	s.status.Set(ctx, run.ID.String(), types.PipelineRunQueued)
	s.execute(ctx, run)
	return s.runs.GetByID(ctx, nil, run.ID)
}

func (s *pipelineService) GetRun(ctx context.Context, id uuid.UUID) (*types.PipelineRun, error) {
	return s.runs.GetByID(ctxutil.Default(ctx), nil, id)
}

// RunStatus prefers the redis mirror and falls back to the run table.
func (s *pipelineService) RunStatus(ctx context.Context, id uuid.UUID) (string, error) {
	if status, ok := s.status.Get(ctx, id.String()); ok {
		return status, nil
	}
	run, err := s.runs.GetByID(ctxutil.Default(ctx), nil, id)
	if err != nil {
		return "", err
	}
	return run.Status, nil
}

func (s *pipelineService) execute(ctx context.Context, run *types.PipelineRun) {
	if err := s.flight.Acquire(ctx, 1); err != nil {
		s.fail(ctx, run, err)
		return
	}
	defer s.flight.Release(1)

	start := time.Now()
	if err := s.runs.MarkRunning(ctx, nil, run.ID); err != nil {
		s.log.Error("Failed to mark run running", "run_id", run.ID, "error", err)
	}
	s.status.Set(ctx, run.ID.String(), types.PipelineRunRunning)

	stats, err := s.runOnce(ctx, run)
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.PipelineDuration.Observe(duration.Seconds())
	}
	if err != nil {
		s.fail(ctx, run, err)
		return
	}

	raw, marshalErr := json.Marshal(stats)
	if marshalErr != nil {
		raw = []byte("{}")
	}
	if err := s.runs.MarkSucceeded(ctx, nil, run.ID, datatypes.JSON(raw)); err != nil {
		s.log.Error("Failed to mark run succeeded", "run_id", run.ID, "error", err)
	}
	s.status.Set(ctx, run.ID.String(), types.PipelineRunSucceeded)
	if s.metrics != nil {
		s.metrics.PipelineRuns.WithLabelValues(run.Trigger, types.PipelineRunSucceeded).Inc()
	}
	s.log.Info("Pipeline run succeeded",
		"run_id", run.ID,
		"trigger", run.Trigger,
		"duration", duration.String())
}

type runStats struct {
	Records          int            `json:"records"`
	RowCounts        map[string]int `json:"row_counts"`
	DocumentsIndexed int            `json:"documents_indexed"`
	LoadDuration     string         `json:"load_duration"`
}

// runOnce is one full pass: committed bronze rows through transform,
// aggregate, relational load and a full search re-sync.
func (s *pipelineService) runOnce(ctx context.Context, run *types.PipelineRun) (*runStats, error) {
	rows, err := s.bronze.ListActive(ctx, nil)
	if err != nil {
		return nil, err
	}

	records := make([]etl.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, rawFromBronze(row))
	}

	now := time.Now().UTC()
	sourcePath := "bronze://" + run.ID.String()

	// The load runs even on an empty snapshot so the warehouse is pruned
	// and the aggregates cleared after the last record is removed.
	tables, err := etl.Transform(records, sourcePath, now)
	if err != nil {
		return nil, err
	}
	aggs := etl.Aggregate(tables, sourcePath, now)
	loadStats, err := s.loader.Load(ctx, tables, aggs)
	if err != nil {
		return nil, err
	}

	indexed, err := s.search.FullSync(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DocumentsIndexed.Add(float64(indexed))
	}

	return &runStats{
		Records:          len(records),
		RowCounts:        loadStats.RowCounts,
		DocumentsIndexed: indexed,
		LoadDuration:     loadStats.Duration,
	}, nil
}

func (s *pipelineService) fail(ctx context.Context, run *types.PipelineRun, err error) {
	s.log.Error("Pipeline run failed", "run_id", run.ID, "trigger", run.Trigger, "error", err)
	if markErr := s.runs.MarkFailed(ctx, nil, run.ID, err); markErr != nil {
		s.log.Error("Failed to mark run failed", "run_id", run.ID, "error", markErr)
	}
	s.status.Set(ctx, run.ID.String(), types.PipelineRunFailed)
	if s.metrics != nil {
		s.metrics.PipelineRuns.WithLabelValues(run.Trigger, types.PipelineRunFailed).Inc()
	}
}

func rawFromBronze(row types.BronzeMovie) etl.RawRecord {
	return etl.RawRecord{
		ID:          row.ID,
		Name:        row.Name,
		OrigTitle:   row.OrigTitle,
		Overview:    row.Overview,
		Status:      row.Status,
		ReleaseDate: row.ReleaseDate,
		Genre:       row.Genre,
		Crew:        row.Crew,
		Country:     row.Country,
		OrigLang:    row.OrigLang,
		Budget:      row.Budget,
		Revenue:     row.Revenue,
		Score:       row.Score,
	}
}
