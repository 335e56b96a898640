package types

import (
	"time"

	"github.com/google/uuid"
)

// BronzeMovie is one raw ingested record. The primary key is the
// deterministic content identity assigned at first ingest; it is never
// regenerated on update, so title edits keep the row's identity stable.
type BronzeMovie struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;index" json:"name"`
	OrigTitle   string    `gorm:"column:orig_title;not null" json:"orig_title"`
	Overview    string    `gorm:"column:overview" json:"overview"`
	Status      string    `gorm:"column:status" json:"status"`
	ReleaseDate string    `gorm:"column:release_date" json:"release_date"`
	Genre       string    `gorm:"column:genre" json:"genre"`
	Crew        string    `gorm:"column:crew" json:"crew"`
	Country     string    `gorm:"column:country" json:"country"`
	OrigLang    string    `gorm:"column:orig_lang" json:"orig_lang"`
	Budget      *float64  `gorm:"column:budget" json:"budget"`
	Revenue     *float64  `gorm:"column:revenue" json:"revenue"`
	Score       *float64  `gorm:"column:score" json:"score"`
	IsDeleted   bool      `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (BronzeMovie) TableName() string { return "bronze_movie" }
