package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/envutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
)

const runStatusTTL = 24 * time.Hour

// RunStatusStore mirrors pipeline run status into redis so status polls
// skip the database. It is optional: a nil client makes every method a
// no-op and reads fall through to the pipeline_run table.
type RunStatusStore struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRunStatusStore(client *redis.Client, baseLog *logger.Logger) *RunStatusStore {
	return &RunStatusStore{
		client: client,
		log:    baseLog.With("service", "RunStatusStore"),
	}
}

func NewRedisClient(log *logger.Logger) *redis.Client {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		log.Info("REDIS_ADDR not set, run-status cache disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
}

func (s *RunStatusStore) Set(ctx context.Context, runID string, status string) {
	if s == nil || s.client == nil {
		return
	}
	err := s.client.Set(ctxutil.Default(ctx), runStatusKey(runID), status, runStatusTTL).Err()
	if err != nil {
		// Cache failures never fail the pipeline.
		s.log.Warn("Run status cache write failed", "run_id", runID, "error", err)
	}
}

func (s *RunStatusStore) Get(ctx context.Context, runID string) (string, bool) {
	if s == nil || s.client == nil {
		return "", false
	}
	val, err := s.client.Get(ctxutil.Default(ctx), runStatusKey(runID)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func runStatusKey(runID string) string {
	return fmt.Sprintf("etl:run:%s:status", runID)
}
