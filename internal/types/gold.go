package types

import (
	"time"
)

// Gold-layer dimensional model. Integer surrogate keys stay primary keys;
// uniqueness constraints live on the natural-key columns so re-loads upsert
// instead of duplicating. Every row keeps a lineage_id pointing back at the
// record or natural key that produced it.

type DimMovie struct {
	MovieID   int64     `gorm:"column:movie_id;primaryKey;autoIncrement" json:"movie_id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:uq_dim_movie,priority:1" json:"name"`
	OrigTitle string    `gorm:"column:orig_title;not null;uniqueIndex:uq_dim_movie,priority:2" json:"orig_title"`
	Overview  string    `gorm:"column:overview" json:"overview"`
	Status    string    `gorm:"column:status" json:"status"`
	LineageID string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DimMovie) TableName() string { return "dim_movie" }

type DimDate struct {
	DateID      int64      `gorm:"column:date_id;primaryKey;autoIncrement" json:"date_id"`
	ReleaseDate *time.Time `gorm:"column:release_date" json:"release_date"`
	Year        int        `gorm:"column:year;not null;uniqueIndex:uq_dim_date,priority:1" json:"year"`
	Month       int        `gorm:"column:month;not null;uniqueIndex:uq_dim_date,priority:2" json:"month"`
	Day         int        `gorm:"column:day;not null;uniqueIndex:uq_dim_date,priority:3" json:"day"`
	Quarter     int        `gorm:"column:quarter;not null" json:"quarter"`
	LineageID   string     `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (DimDate) TableName() string { return "dim_date" }

type DimCountry struct {
	CountryID   int64     `gorm:"column:country_id;primaryKey;autoIncrement" json:"country_id"`
	CountryName string    `gorm:"column:country_name;not null;uniqueIndex:uq_dim_country" json:"country_name"`
	LineageID   string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (DimCountry) TableName() string { return "dim_country" }

type DimLanguage struct {
	LanguageID   int64     `gorm:"column:language_id;primaryKey;autoIncrement" json:"language_id"`
	LanguageName string    `gorm:"column:language_name;not null;uniqueIndex:uq_dim_language" json:"language_name"`
	LineageID    string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (DimLanguage) TableName() string { return "dim_language" }

type DimGenre struct {
	GenreID   int64     `gorm:"column:genre_id;primaryKey;autoIncrement" json:"genre_id"`
	GenreName string    `gorm:"column:genre_name;not null;uniqueIndex:uq_dim_genre" json:"genre_name"`
	LineageID string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DimGenre) TableName() string { return "dim_genre" }

type DimCrew struct {
	CrewID        int64     `gorm:"column:crew_id;primaryKey;autoIncrement" json:"crew_id"`
	ActorName     string    `gorm:"column:actor_name;not null;uniqueIndex:uq_dim_crew,priority:1" json:"actor_name"`
	CharacterName string    `gorm:"column:character_name;not null;uniqueIndex:uq_dim_crew,priority:2" json:"character_name"`
	LineageID     string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (DimCrew) TableName() string { return "dim_crew" }

type BridgeMovieGenre struct {
	BridgeID  int64     `gorm:"column:bridge_id;primaryKey;autoIncrement" json:"bridge_id"`
	MovieID   int64     `gorm:"column:movie_id;not null;uniqueIndex:uq_bridge_movie_genre,priority:1" json:"movie_id"`
	GenreID   int64     `gorm:"column:genre_id;not null;uniqueIndex:uq_bridge_movie_genre,priority:2" json:"genre_id"`
	LineageID string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (BridgeMovieGenre) TableName() string { return "bridge_movie_genre" }

type BridgeMovieCrew struct {
	BridgeID      int64     `gorm:"column:bridge_id;primaryKey;autoIncrement" json:"bridge_id"`
	MovieID       int64     `gorm:"column:movie_id;not null;uniqueIndex:uq_bridge_movie_crew,priority:1" json:"movie_id"`
	CrewID        int64     `gorm:"column:crew_id;not null;uniqueIndex:uq_bridge_movie_crew,priority:2" json:"crew_id"`
	CharacterName string    `gorm:"column:character_name;not null;uniqueIndex:uq_bridge_movie_crew,priority:3" json:"character_name"`
	LineageID     string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (BridgeMovieCrew) TableName() string { return "bridge_movie_crew" }

type FactMovieMetrics struct {
	FactID     int64     `gorm:"column:fact_id;primaryKey;autoIncrement" json:"fact_id"`
	MovieID    int64     `gorm:"column:movie_id;not null;uniqueIndex:uq_fact_movie_metrics,priority:1" json:"movie_id"`
	DateID     int64     `gorm:"column:date_id;not null;uniqueIndex:uq_fact_movie_metrics,priority:2" json:"date_id"`
	CountryID  int64     `gorm:"column:country_id;not null;uniqueIndex:uq_fact_movie_metrics,priority:3" json:"country_id"`
	LanguageID int64     `gorm:"column:language_id;not null;uniqueIndex:uq_fact_movie_metrics,priority:4" json:"language_id"`
	Budget     float64   `gorm:"column:budget;not null" json:"budget"`
	Revenue    float64   `gorm:"column:revenue;not null" json:"revenue"`
	Score      float64   `gorm:"column:score;not null" json:"score"`
	Profit     float64   `gorm:"column:profit;not null" json:"profit"`
	LineageID  string    `gorm:"column:lineage_id;not null;index" json:"lineage_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (FactMovieMetrics) TableName() string { return "fact_movie_metrics" }

type RevenueByGenre struct {
	GenreName    string    `gorm:"column:genre_name;primaryKey" json:"genre_name"`
	TotalRevenue float64   `gorm:"column:total_revenue;not null" json:"total_revenue"`
	LineageID    string    `gorm:"column:lineage_id;not null" json:"lineage_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (RevenueByGenre) TableName() string { return "revenue_by_genre" }

type AvgScoreByYear struct {
	Year      int       `gorm:"column:year;primaryKey" json:"year"`
	AvgScore  float64   `gorm:"column:avg_score;not null" json:"avg_score"`
	LineageID string    `gorm:"column:lineage_id;not null" json:"lineage_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AvgScoreByYear) TableName() string { return "avg_score_by_year" }
