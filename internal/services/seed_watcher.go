package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cinelake/cinelake-backend/internal/platform/logger"
)

// settle delay before reading a dropped file, so partially written seeds
// are not ingested mid-copy
const seedSettleDelay = 500 * time.Millisecond

// SeedWatcher ingests files dropped into a watched directory, so bulk
// seeds can bypass the HTTP surface entirely.
type SeedWatcher struct {
	dir       string
	extractor ExtractorService
	bronze    BronzeService
	log       *logger.Logger
}

func NewSeedWatcher(dir string, extractor ExtractorService, bronze BronzeService, baseLog *logger.Logger) *SeedWatcher {
	return &SeedWatcher{
		dir:       dir,
		extractor: extractor,
		bronze:    bronze,
		log:       baseLog.With("service", "SeedWatcher"),
	}
}

// Start watches until the context is cancelled. Files already present in
// the directory at startup are ingested first.
func (w *SeedWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.ingestFile(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				time.Sleep(seedSettleDelay)
				w.ingestFile(ctx, event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.Error("Seed watcher error", "error", err)
			}
		}
	}()

	w.log.Info("Watching seed directory", "dir", w.dir)
	return nil
}

func (w *SeedWatcher) ingestFile(ctx context.Context, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".json" {
		return
	}

	records, err := w.extractor.ExtractFile(path)
	if err != nil {
		w.log.Error("Seed extraction failed", "path", path, "error", err)
		return
	}
	result, run, err := w.bronze.IngestBatch(ctx, records, path)
	if err != nil {
		w.log.Error("Seed ingest failed", "path", path, "error", err)
		return
	}

	runID := ""
	if run != nil {
		runID = run.ID.String()
	}
	w.log.Info("Seed file ingested",
		"path", path,
		"received", result.Received,
		"added", result.Added,
		"updated", result.Updated,
		"run_id", runID)

	if err := os.Remove(path); err != nil {
		w.log.Warn("Failed to remove ingested seed file", "path", path, "error", err)
	}
}
