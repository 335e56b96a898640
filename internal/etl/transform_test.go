package etl

import (
	"errors"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func transformNow() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func heistRecord() RawRecord {
	return RawRecord{
		Name:        "Edge of Dawn",
		OrigTitle:   "Edge of Dawn",
		Overview:    "A heist at sunrise.",
		Status:      "Released",
		ReleaseDate: "01/01/2020",
		Genre:       "Action, Drama",
		Crew:        "Alice, Hero",
		Country:     "US",
		OrigLang:    "English",
		Budget:      fp(10),
		Revenue:     fp(30),
		Score:       fp(7.5),
	}
}

func TestTransformBuildsStarSchema(t *testing.T) {
	tables, err := Transform([]RawRecord{heistRecord()}, "test://x", transformNow())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if len(tables.Movies) != 1 {
		t.Fatalf("movies = %d", len(tables.Movies))
	}
	movie := tables.Movies[0]
	if movie.MovieKey != 1 || movie.Name != "Edge of Dawn" {
		t.Fatalf("movie = %+v", movie)
	}

	if len(tables.Genres) != 2 {
		t.Fatalf("genres = %v", tables.Genres)
	}
	if tables.Genres[0].GenreName != "Action" || tables.Genres[1].GenreName != "Drama" {
		t.Fatalf("genres = %v", tables.Genres)
	}
	if len(tables.MovieGenres) != 2 {
		t.Fatalf("genre bridges = %d, want 2", len(tables.MovieGenres))
	}

	if len(tables.Crew) != 1 {
		t.Fatalf("crew = %v", tables.Crew)
	}
	if tables.Crew[0].ActorName != "Alice" || tables.Crew[0].CharacterName != "Hero" {
		t.Fatalf("crew = %+v", tables.Crew[0])
	}
	if len(tables.MovieCrew) != 1 {
		t.Fatalf("crew bridges = %d", len(tables.MovieCrew))
	}

	if len(tables.Dates) != 1 {
		t.Fatalf("dates = %v", tables.Dates)
	}
	date := tables.Dates[0]
	if date.Year != 2020 || date.Month != 1 || date.Day != 1 || date.Quarter != 1 {
		t.Fatalf("date = %+v", date)
	}

	if len(tables.Facts) != 1 {
		t.Fatalf("facts = %v", tables.Facts)
	}
	fact := tables.Facts[0]
	if fact.Profit != 20 {
		t.Fatalf("profit = %v, want 20", fact.Profit)
	}
	if fact.MovieLineageID != movie.LineageID {
		t.Fatal("fact not joined to movie lineage")
	}
	if fact.DateLineageID != date.LineageID {
		t.Fatal("fact not joined to date lineage")
	}
}

func TestTransformRejectsBatchWithoutTitles(t *testing.T) {
	records := []RawRecord{
		{Overview: "no title", Country: "US"},
		{Status: "Released"},
	}
	if _, err := Transform(records, "test://x", transformNow()); !errors.Is(err, ErrNoTitleAnchor) {
		t.Fatalf("expected ErrNoTitleAnchor, got %v", err)
	}
}

func TestTransformEmptyBatchIsNoop(t *testing.T) {
	tables, err := Transform(nil, "test://x", transformNow())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(tables.Movies) != 0 || len(tables.Facts) != 0 {
		t.Fatalf("expected empty tables, got %+v", tables.RowCounts())
	}
}

func TestTransformDeduplicatesMoviesKeepingLatest(t *testing.T) {
	first := heistRecord()
	second := heistRecord()
	second.Overview = "Updated overview."
	second.Revenue = fp(100)

	tables, err := Transform([]RawRecord{first, second}, "test://x", transformNow())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(tables.Movies) != 1 {
		t.Fatalf("movies = %d, want 1 after dedup", len(tables.Movies))
	}
	if tables.Movies[0].Overview != "Updated overview." {
		t.Fatalf("overview = %q, want latest version", tables.Movies[0].Overview)
	}
	if tables.Movies[0].MovieKey != 1 {
		t.Fatalf("movie key = %d, dedup must preserve the first key", tables.Movies[0].MovieKey)
	}
	if len(tables.Facts) != 1 {
		t.Fatalf("facts = %d, want 1", len(tables.Facts))
	}
	if tables.Facts[0].Revenue != 100 {
		t.Fatalf("revenue = %v, want latest value", tables.Facts[0].Revenue)
	}
}

func TestTransformUnknownDateCollapses(t *testing.T) {
	a := heistRecord()
	a.ReleaseDate = "garbage"
	b := heistRecord()
	b.Name = "Other Film"
	b.OrigTitle = "Other Film"
	b.ReleaseDate = ""

	tables, err := Transform([]RawRecord{a, b}, "test://x", transformNow())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(tables.Dates) != 1 {
		t.Fatalf("dates = %v, want single unknown row", tables.Dates)
	}
	unknown := tables.Dates[0]
	if unknown.ReleaseDate != nil || unknown.Year != 0 || unknown.Quarter != 0 {
		t.Fatalf("unknown date row = %+v", unknown)
	}
	for _, f := range tables.Facts {
		if f.DateLineageID != unknown.LineageID {
			t.Fatal("fact not attached to the unknown date row")
		}
	}
}

func TestTransformLineageEntries(t *testing.T) {
	tables, err := Transform([]RawRecord{heistRecord()}, "seed.csv", transformNow())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	byTransformation := map[string]int{}
	for _, e := range tables.Lineage {
		if e.SourcePath != "seed.csv" {
			t.Fatalf("source path = %q", e.SourcePath)
		}
		if e.Stage != StageSilver {
			t.Fatalf("stage = %q", e.Stage)
		}
		byTransformation[e.Transformation]++
	}
	if byTransformation["dim_movie_build"] != 1 {
		t.Fatalf("dim_movie_build entries = %d", byTransformation["dim_movie_build"])
	}
	if byTransformation["bridge_movie_genre_build"] != 2 {
		t.Fatalf("bridge_movie_genre_build entries = %d", byTransformation["bridge_movie_genre_build"])
	}
	if byTransformation["fact_movie_metrics_build"] != 1 {
		t.Fatalf("fact entries = %d", byTransformation["fact_movie_metrics_build"])
	}
}

func TestTransformNullMetricsBecomeZero(t *testing.T) {
	r := heistRecord()
	r.Budget = nil
	r.Revenue = nil
	r.Score = nil

	tables, err := Transform([]RawRecord{r}, "test://x", transformNow())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	fact := tables.Facts[0]
	if fact.Budget != 0 || fact.Revenue != 0 || fact.Score != 0 || fact.Profit != 0 {
		t.Fatalf("fact = %+v, want zeroed metrics", fact)
	}
}
