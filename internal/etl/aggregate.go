package etl

import (
	"sort"
	"strconv"
	"time"

	"github.com/cinelake/cinelake-backend/internal/identity"
)

type RevenueByGenreRow struct {
	GenreName    string
	TotalRevenue float64
	LineageID    string
}

type AvgScoreByYearRow struct {
	Year      int
	AvgScore  float64
	LineageID string
}

type Aggregates struct {
	RevenueByGenre []RevenueByGenreRow
	AvgScoreByYear []AvgScoreByYearRow
	Lineage        []LineageEntry
}

// Aggregate fully recomputes the gold roll-ups from the in-memory fact and
// dimension tables. Nothing is patched incrementally; recompute cost is
// traded for zero aggregate drift.
func Aggregate(t *Tables, sourcePath string, now time.Time) *Aggregates {
	out := &Aggregates{}
	if t == nil {
		return out
	}

	// fact rows grouped by movie lineage, for the genre join
	factsByMovie := map[string][]FactRow{}
	for _, f := range t.Facts {
		factsByMovie[f.MovieLineageID] = append(factsByMovie[f.MovieLineageID], f)
	}
	genreNames := map[string]string{}
	for _, g := range t.Genres {
		genreNames[g.LineageID] = g.GenreName
	}

	revenue := map[string]float64{}
	for _, b := range t.MovieGenres {
		name, ok := genreNames[b.GenreLineageID]
		if !ok {
			continue
		}
		for _, f := range factsByMovie[b.MovieLineageID] {
			revenue[name] += f.Revenue
		}
	}
	genres := make([]string, 0, len(revenue))
	for name := range revenue {
		genres = append(genres, name)
	}
	sort.Strings(genres)
	for _, name := range genres {
		lid := identity.KeyID("revenue_by_genre", name).String()
		out.RevenueByGenre = append(out.RevenueByGenre, RevenueByGenreRow{
			GenreName:    name,
			TotalRevenue: revenue[name],
			LineageID:    lid,
		})
		out.Lineage = append(out.Lineage, LineageEntry{
			LineageID:      lid,
			SourcePath:     sourcePath,
			Stage:          StageGold,
			Transformation: "revenue_by_genre_build",
			Timestamp:      now,
		})
	}

	// average score by release year; unknown-date facts have no year to
	// group under and are excluded
	years := map[string]int{}
	for _, d := range t.Dates {
		if d.ReleaseDate != nil {
			years[d.LineageID] = d.Year
		}
	}
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, f := range t.Facts {
		year, ok := years[f.DateLineageID]
		if !ok {
			continue
		}
		sums[year] += f.Score
		counts[year]++
	}
	yearKeys := make([]int, 0, len(sums))
	for y := range sums {
		yearKeys = append(yearKeys, y)
	}
	sort.Ints(yearKeys)
	for _, y := range yearKeys {
		lid := identity.KeyID("avg_score_by_year", strconv.Itoa(y)).String()
		out.AvgScoreByYear = append(out.AvgScoreByYear, AvgScoreByYearRow{
			Year:      y,
			AvgScore:  sums[y] / float64(counts[y]),
			LineageID: lid,
		})
		out.Lineage = append(out.Lineage, LineageEntry{
			LineageID:      lid,
			SourcePath:     sourcePath,
			Stage:          StageGold,
			Transformation: "avg_score_by_year_build",
			Timestamp:      now,
		})
	}

	return out
}
