package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PipelineRunQueued    = "queued"
	PipelineRunRunning   = "running"
	PipelineRunSucceeded = "succeeded"
	PipelineRunFailed    = "failed"
)

// PipelineRun is the durable record of one background ETL pass. Callers of
// the mutation API get the run id back and can poll its status; failures in
// the background pipeline land here and in the logs, never in the original
// HTTP response.
type PipelineRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Trigger    string         `gorm:"column:trigger;not null" json:"trigger"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	Stats      datatypes.JSON `gorm:"column:stats;type:jsonb" json:"stats,omitempty"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (PipelineRun) TableName() string { return "pipeline_run" }
