package types

import (
	"time"

	"github.com/google/uuid"
)

// LineageLog is the append-only audit trail. The primary key is derived
// deterministically from (lineage_id, stage, transformation) so replaying an
// unchanged pipeline run inserts nothing new; conflicts are always ignored,
// never updated.
type LineageLog struct {
	LineageLogID   uuid.UUID `gorm:"column:lineage_log_id;type:uuid;primaryKey" json:"lineage_log_id"`
	LineageID      string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	SourcePath     string    `gorm:"column:source_path;not null" json:"source_path"`
	Stage          string    `gorm:"column:stage;not null" json:"stage"`
	Transformation string    `gorm:"column:transformation;not null" json:"transformation"`
	Timestamp      time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (LineageLog) TableName() string { return "lineage_log" }
