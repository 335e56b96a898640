package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/cinelake/cinelake-backend/internal/pkg/errors"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/types"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.BronzeMovie{}, &types.PipelineRun{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func floatPtr(v float64) *float64 { return &v }

func bronzeRow(id uuid.UUID, name string, revenue float64) types.BronzeMovie {
	return types.BronzeMovie{
		ID:        id,
		Name:      name,
		OrigTitle: name,
		Genre:     "Drama",
		Revenue:   floatPtr(revenue),
	}
}

func TestBronzeMergeCountsAddsAndUpdates(t *testing.T) {
	repo := NewBronzeMovieRepo(testDB(t), testLogger(t))
	ctx := context.Background()

	idA := uuid.New()
	idB := uuid.New()
	res, err := repo.Merge(ctx, nil, []types.BronzeMovie{
		bronzeRow(idA, "Alpha", 10),
		bronzeRow(idB, "Beta", 20),
	})
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if res.Added != 2 || res.Updated != 0 {
		t.Fatalf("first merge = %+v, want 2 added", res)
	}

	// Same identities again: nothing genuinely new.
	res, err = repo.Merge(ctx, nil, []types.BronzeMovie{
		bronzeRow(idA, "Alpha", 15),
		bronzeRow(idB, "Beta", 20),
	})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res.Added != 0 || res.Updated != 2 {
		t.Fatalf("second merge = %+v, want 2 updated", res)
	}

	got, err := repo.GetByID(ctx, nil, idA)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Revenue == nil || *got.Revenue != 15 {
		t.Fatalf("last write should win, revenue = %v", got.Revenue)
	}
}

func TestBronzeMergeCollapsesWithinBatchDuplicates(t *testing.T) {
	repo := NewBronzeMovieRepo(testDB(t), testLogger(t))
	ctx := context.Background()

	id := uuid.New()
	other := uuid.New()
	res, err := repo.Merge(ctx, nil, []types.BronzeMovie{
		bronzeRow(id, "Twice", 10),
		bronzeRow(other, "Once", 5),
		bronzeRow(id, "Twice", 25),
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Received != 3 {
		t.Fatalf("received = %d, want 3", res.Received)
	}
	if res.Added != 2 || res.Updated != 0 {
		t.Fatalf("result = %+v, want 2 added (one logical identity per row)", res)
	}

	got, err := repo.GetByID(ctx, nil, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Revenue == nil || *got.Revenue != 25 {
		t.Fatalf("last occurrence should win, revenue = %v", got.Revenue)
	}

	var count int64
	if err := repo.(*bronzeMovieRepo).db.Model(&types.BronzeMovie{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("rows = %d, want 2", count)
	}
}

func TestBronzeMergeEmptyBatch(t *testing.T) {
	repo := NewBronzeMovieRepo(testDB(t), testLogger(t))
	res, err := repo.Merge(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Received != 0 || res.Added != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestBronzeGetByNameSkipsDeleted(t *testing.T) {
	repo := NewBronzeMovieRepo(testDB(t), testLogger(t))
	ctx := context.Background()

	id := uuid.New()
	if _, err := repo.Merge(ctx, nil, []types.BronzeMovie{bronzeRow(id, "Gamma", 5)}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, err := repo.GetByName(ctx, nil, "Gamma"); err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if err := repo.SoftDeleteByID(ctx, nil, id); err != nil {
		t.Fatalf("SoftDeleteByID: %v", err)
	}
	if _, err := repo.GetByName(ctx, nil, "Gamma"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found after soft delete, got %v", err)
	}

	// The tombstone itself must still be readable by id.
	got, err := repo.GetByID(ctx, nil, id)
	if err != nil {
		t.Fatalf("GetByID after soft delete: %v", err)
	}
	if !got.IsDeleted {
		t.Fatal("expected is_deleted to be set")
	}
}

func TestBronzeUpdateByIDNotFound(t *testing.T) {
	repo := NewBronzeMovieRepo(testDB(t), testLogger(t))
	row := bronzeRow(uuid.New(), "Missing", 0)
	if err := repo.UpdateByID(context.Background(), nil, &row); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBronzeListActiveAndPage(t *testing.T) {
	repo := NewBronzeMovieRepo(testDB(t), testLogger(t))
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	rows := []types.BronzeMovie{
		bronzeRow(ids[0], "One", 1),
		bronzeRow(ids[1], "Two", 2),
		bronzeRow(ids[2], "Three", 3),
	}
	if _, err := repo.Merge(ctx, nil, rows); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := repo.SoftDeleteByID(ctx, nil, ids[2]); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	active, err := repo.ListActive(ctx, nil)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}

	page, total, err := repo.ListPage(ctx, nil, 0, 1)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 2 || len(page) != 1 {
		t.Fatalf("page total=%d len=%d, want total 2 len 1", total, len(page))
	}
}

func TestPipelineRunLifecycle(t *testing.T) {
	repo := NewPipelineRunRepo(testDB(t), testLogger(t))
	ctx := context.Background()

	run := &types.PipelineRun{Trigger: "seed"}
	if err := repo.Create(ctx, nil, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.Status != types.PipelineRunQueued {
		t.Fatalf("status = %q, want queued", run.Status)
	}

	if err := repo.MarkRunning(ctx, nil, run.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkSucceeded(ctx, nil, run.ID, []byte(`{"fact_movie_metrics":3}`)); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, run.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.PipelineRunSucceeded {
		t.Fatalf("status = %q", got.Status)
	}
	if got.StartedAt == nil || got.FinishedAt == nil {
		t.Fatal("expected started_at and finished_at set")
	}
}
