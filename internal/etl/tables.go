package etl

import "time"

// In-memory silver/gold tables produced by one transform pass. Dimension
// rows carry dense local surrogate keys assigned over first-seen order;
// bridge and fact rows reference dimensions by lineage id, which the loader
// resolves to database surrogate keys after the dimension upserts commit.

type MovieRow struct {
	MovieKey  int
	Name      string
	OrigTitle string
	Overview  string
	Status    string
	LineageID string
	GenreList []string
	CrewPairs []CrewMember
}

type DateRow struct {
	DateKey     int
	ReleaseDate *time.Time
	Year        int
	Month       int
	Day         int
	Quarter     int
	LineageID   string
}

type CountryRow struct {
	CountryKey  int
	CountryName string
	LineageID   string
}

type LanguageRow struct {
	LanguageKey  int
	LanguageName string
	LineageID    string
}

type GenreRow struct {
	GenreKey  int
	GenreName string
	LineageID string
}

type CrewRow struct {
	CrewKey       int
	ActorName     string
	CharacterName string
	LineageID     string
}

type MovieGenreRow struct {
	MovieLineageID string
	GenreLineageID string
	LineageID      string
}

type MovieCrewRow struct {
	MovieLineageID string
	CrewLineageID  string
	CharacterName  string
	LineageID      string
}

type FactRow struct {
	MovieLineageID    string
	DateLineageID     string
	CountryLineageID  string
	LanguageLineageID string
	Budget            float64
	Revenue           float64
	Score             float64
	Profit            float64
	LineageID         string
}

type LineageEntry struct {
	LineageID      string
	SourcePath     string
	Stage          string
	Transformation string
	Timestamp      time.Time
}

type Tables struct {
	Movies    []MovieRow
	Dates     []DateRow
	Countries []CountryRow
	Languages []LanguageRow
	Genres    []GenreRow
	Crew      []CrewRow

	MovieGenres []MovieGenreRow
	MovieCrew   []MovieCrewRow
	Facts       []FactRow

	Lineage []LineageEntry
}

// RowCounts summarizes the pass for run stats and logging.
func (t *Tables) RowCounts() map[string]int {
	if t == nil {
		return nil
	}
	return map[string]int{
		"dim_movie":          len(t.Movies),
		"dim_date":           len(t.Dates),
		"dim_country":        len(t.Countries),
		"dim_language":       len(t.Languages),
		"dim_genre":          len(t.Genres),
		"dim_crew":           len(t.Crew),
		"bridge_movie_genre": len(t.MovieGenres),
		"bridge_movie_crew":  len(t.MovieCrew),
		"fact_movie_metrics": len(t.Facts),
		"lineage_log":        len(t.Lineage),
	}
}
