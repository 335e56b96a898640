package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/cinelake/cinelake-backend/internal/repos"
	"github.com/cinelake/cinelake-backend/internal/types"
)

func TestRunNowExecutesFullPass(t *testing.T) {
	db := loaderTestDB(t)
	log := loaderTestLogger(t)
	bronze := repos.NewBronzeMovieRepo(db, log)
	runs := repos.NewPipelineRunRepo(db, log)
	search := &fakeSearchClient{}
	syncSvc := NewSearchSyncService(bronze, search, log)
	loader := NewLoaderService(db, log)
	status := NewRunStatusStore(nil, log)

	pipeline := NewPipelineService(bronze, runs, loader, syncSvc, status, nil, log)
	ctx := context.Background()

	_, err := bronze.Merge(ctx, nil, []types.BronzeMovie{
		{ID: uuid.New(), Name: "Edge of Dawn", OrigTitle: "Edge of Dawn", Genre: "Action", Country: "US", OrigLang: "English", ReleaseDate: "01/01/2020"},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	run, err := pipeline.RunNow(ctx, "manual")
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if run.Status != types.PipelineRunSucceeded {
		t.Fatalf("status = %q error = %q", run.Status, run.Error)
	}

	var stats runStats
	if err := json.Unmarshal(run.Stats, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Records != 1 || stats.DocumentsIndexed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.RowCounts["dim_movie"] != 1 || stats.RowCounts["fact_movie_metrics"] != 1 {
		t.Fatalf("row counts = %v", stats.RowCounts)
	}

	var movies int64
	if err := db.Model(&types.DimMovie{}).Count(&movies).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if movies != 1 {
		t.Fatalf("dim_movie rows = %d", movies)
	}
	if search.ensured != 1 {
		t.Fatalf("collection ensured %d times", search.ensured)
	}
}

func TestRunNowPrunesTombstonedRecords(t *testing.T) {
	db := loaderTestDB(t)
	log := loaderTestLogger(t)
	bronze := repos.NewBronzeMovieRepo(db, log)
	runs := repos.NewPipelineRunRepo(db, log)
	search := &fakeSearchClient{}
	pipeline := NewPipelineService(bronze, runs, NewLoaderService(db, log),
		NewSearchSyncService(bronze, search, log), NewRunStatusStore(nil, log), nil, log)
	ctx := context.Background()

	keep := uuid.New()
	gone := uuid.New()
	_, err := bronze.Merge(ctx, nil, []types.BronzeMovie{
		{ID: keep, Name: "Edge of Dawn", OrigTitle: "Edge of Dawn", Genre: "Action", Country: "US", OrigLang: "English", ReleaseDate: "01/01/2020"},
		{ID: gone, Name: "Quiet Rivers", OrigTitle: "Quiet Rivers", Genre: "Drama", Country: "US", OrigLang: "English", ReleaseDate: "06/15/2020"},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if run, err := pipeline.RunNow(ctx, "manual"); err != nil || run.Status != types.PipelineRunSucceeded {
		t.Fatalf("first run: %v status %q", err, run.Status)
	}

	if err := bronze.SoftDeleteByID(ctx, nil, gone); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	run, err := pipeline.RunNow(ctx, "delete")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if run.Status != types.PipelineRunSucceeded {
		t.Fatalf("status = %q error = %q", run.Status, run.Error)
	}

	var movies int64
	if err := db.Model(&types.DimMovie{}).Count(&movies).Error; err != nil {
		t.Fatalf("count dim_movie: %v", err)
	}
	if movies != 1 {
		t.Fatalf("dim_movie rows = %d, want 1 after tombstone", movies)
	}
	var facts int64
	if err := db.Model(&types.FactMovieMetrics{}).Count(&facts).Error; err != nil {
		t.Fatalf("count facts: %v", err)
	}
	if facts != 1 {
		t.Fatalf("fact rows = %d, want 1 after tombstone", facts)
	}
	var drama int64
	if err := db.Model(&types.RevenueByGenre{}).Where("genre_name = ?", "Drama").Count(&drama).Error; err != nil {
		t.Fatalf("count Drama: %v", err)
	}
	if drama != 0 {
		t.Fatalf("Drama aggregate rows = %d, want 0 after tombstone", drama)
	}
}

func TestRunNowEmptyBronzeStillSyncs(t *testing.T) {
	db := loaderTestDB(t)
	log := loaderTestLogger(t)
	bronze := repos.NewBronzeMovieRepo(db, log)
	runs := repos.NewPipelineRunRepo(db, log)
	search := &fakeSearchClient{}
	pipeline := NewPipelineService(bronze, runs, NewLoaderService(db, log),
		NewSearchSyncService(bronze, search, log), NewRunStatusStore(nil, log), nil, log)

	run, err := pipeline.RunNow(context.Background(), "manual")
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if run.Status != types.PipelineRunSucceeded {
		t.Fatalf("status = %q", run.Status)
	}
	if search.ensured != 1 {
		t.Fatal("expected collection rebuild even with empty bronze")
	}
}

func TestRunStatusFallsBackToDatabase(t *testing.T) {
	db := loaderTestDB(t)
	log := loaderTestLogger(t)
	bronze := repos.NewBronzeMovieRepo(db, log)
	runs := repos.NewPipelineRunRepo(db, log)
	pipeline := NewPipelineService(bronze, runs, NewLoaderService(db, log),
		NewSearchSyncService(bronze, &fakeSearchClient{}, log), NewRunStatusStore(nil, log), nil, log)

	ctx := context.Background()
	run := &types.PipelineRun{Trigger: "manual", Status: types.PipelineRunFailed}
	if err := runs.Create(ctx, nil, run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	status, err := pipeline.RunStatus(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunStatus: %v", err)
	}
	if status != types.PipelineRunFailed {
		t.Fatalf("status = %q", status)
	}
}
