package etl

import (
	"errors"
	"strconv"
	"time"

	"github.com/cinelake/cinelake-backend/internal/identity"
)

// ErrNoTitleAnchor means the batch has no usable title field; a star
// schema cannot be built without its movie anchor.
var ErrNoTitleAnchor = errors.New("transform: no usable title field in batch")

const (
	StageSilver = "silver"
	StageGold   = "gold"
)

// unknownDateKey marks the single dimension row that absorbs every record
// whose release date could not be parsed.
const unknownDateKey = "unknown"

// Transform converts a snapshot of normalized bronze records into the
// in-memory dimension, bridge and fact tables. Surrogate keys are dense
// sequences over first-seen order; every row is stamped with a lineage
// reference and the pass timestamp.
func Transform(records []RawRecord, sourcePath string, now time.Time) (*Tables, error) {
	t := &Tables{}
	if len(records) == 0 {
		return t, nil
	}

	anchored := false
	for _, r := range records {
		if r.Name != "" || r.OrigTitle != "" {
			anchored = true
			break
		}
	}
	if !anchored {
		return nil, ErrNoTitleAnchor
	}

	lineage := func(lineageID, transformation string) {
		t.Lineage = append(t.Lineage, LineageEntry{
			LineageID:      lineageID,
			SourcePath:     sourcePath,
			Stage:          StageSilver,
			Transformation: transformation,
			Timestamp:      now,
		})
	}

	// Date dimension. Unparseable dates collapse into one "unknown" row
	// rather than dropping the record.
	dateIdx := map[string]int{}
	for _, r := range records {
		parsed := ParseReleaseDate(r.ReleaseDate)
		lid := dateLineageID(parsed)
		if _, seen := dateIdx[lid]; seen {
			continue
		}
		row := DateRow{DateKey: len(t.Dates) + 1, LineageID: lid}
		if parsed != nil {
			row.ReleaseDate = parsed
			row.Year = parsed.Year()
			row.Month = int(parsed.Month())
			row.Day = parsed.Day()
			row.Quarter = (int(parsed.Month())-1)/3 + 1
		}
		dateIdx[lid] = row.DateKey
		t.Dates = append(t.Dates, row)
		lineage(lid, "dim_date_build")
	}

	// Genre dimension
	genreIdx := map[string]int{}
	for _, r := range records {
		for _, g := range SplitGenres(r.Genre) {
			if _, seen := genreIdx[g]; seen {
				continue
			}
			lid := identity.KeyID("dim_genre", g).String()
			genreIdx[g] = len(t.Genres) + 1
			t.Genres = append(t.Genres, GenreRow{GenreKey: genreIdx[g], GenreName: g, LineageID: lid})
			lineage(lid, "dim_genre_build")
		}
	}

	// Country and language dimensions
	countryIdx := map[string]int{}
	languageIdx := map[string]int{}
	for _, r := range records {
		if _, seen := countryIdx[r.Country]; !seen {
			lid := identity.KeyID("dim_country", r.Country).String()
			countryIdx[r.Country] = len(t.Countries) + 1
			t.Countries = append(t.Countries, CountryRow{CountryKey: countryIdx[r.Country], CountryName: r.Country, LineageID: lid})
			lineage(lid, "dim_country_build")
		}
		if _, seen := languageIdx[r.OrigLang]; !seen {
			lid := identity.KeyID("dim_language", r.OrigLang).String()
			languageIdx[r.OrigLang] = len(t.Languages) + 1
			t.Languages = append(t.Languages, LanguageRow{LanguageKey: languageIdx[r.OrigLang], LanguageName: r.OrigLang, LineageID: lid})
			lineage(lid, "dim_language_build")
		}
	}

	// Movie dimension, deduplicated on (name, orig_title) keeping the most
	// recent version. Multi-valued fields are parsed here, before the
	// dimension is finalized, so they never duplicate movies.
	movieIdx := map[string]int{}
	for _, r := range records {
		lid := movieLineageID(r.Name, r.OrigTitle)
		row := MovieRow{
			Name:      r.Name,
			OrigTitle: r.OrigTitle,
			Overview:  r.Overview,
			Status:    r.Status,
			LineageID: lid,
			GenreList: SplitGenres(r.Genre),
			CrewPairs: SplitCrew(r.Crew),
		}
		if at, seen := movieIdx[lid]; seen {
			row.MovieKey = t.Movies[at].MovieKey
			t.Movies[at] = row
			continue
		}
		row.MovieKey = len(t.Movies) + 1
		movieIdx[lid] = len(t.Movies)
		t.Movies = append(t.Movies, row)
		lineage(lid, "dim_movie_build")
	}

	// Crew dimension, from the already-parsed movie rows
	crewIdx := map[string]int{}
	for _, m := range t.Movies {
		for _, c := range m.CrewPairs {
			lid := identity.KeyID("dim_crew", c.ActorName, c.CharacterName).String()
			if _, seen := crewIdx[lid]; seen {
				continue
			}
			crewIdx[lid] = len(t.Crew) + 1
			t.Crew = append(t.Crew, CrewRow{
				CrewKey:       crewIdx[lid],
				ActorName:     c.ActorName,
				CharacterName: c.CharacterName,
				LineageID:     lid,
			})
			lineage(lid, "dim_crew_build")
		}
	}

	// Bridge tables, exploded from the deduplicated movie rows
	seenMG := map[string]struct{}{}
	seenMC := map[string]struct{}{}
	for _, m := range t.Movies {
		for _, g := range m.GenreList {
			gLid := identity.KeyID("dim_genre", g).String()
			lid := identity.KeyID("bridge_movie_genre", m.LineageID, gLid).String()
			if _, dup := seenMG[lid]; dup {
				continue
			}
			seenMG[lid] = struct{}{}
			t.MovieGenres = append(t.MovieGenres, MovieGenreRow{
				MovieLineageID: m.LineageID,
				GenreLineageID: gLid,
				LineageID:      lid,
			})
			lineage(lid, "bridge_movie_genre_build")
		}
		for _, c := range m.CrewPairs {
			cLid := identity.KeyID("dim_crew", c.ActorName, c.CharacterName).String()
			lid := identity.KeyID("bridge_movie_crew", m.LineageID, cLid, c.CharacterName).String()
			if _, dup := seenMC[lid]; dup {
				continue
			}
			seenMC[lid] = struct{}{}
			t.MovieCrew = append(t.MovieCrew, MovieCrewRow{
				MovieLineageID: m.LineageID,
				CrewLineageID:  cLid,
				CharacterName:  c.CharacterName,
				LineageID:      lid,
			})
			lineage(lid, "bridge_movie_crew_build")
		}
	}

	// Fact table, joined back on natural keys; profit is always recomputed
	factIdx := map[string]int{}
	for _, r := range records {
		mLid := movieLineageID(r.Name, r.OrigTitle)
		dLid := dateLineageID(ParseReleaseDate(r.ReleaseDate))
		cLid := identity.KeyID("dim_country", r.Country).String()
		lLid := identity.KeyID("dim_language", r.OrigLang).String()
		lid := identity.KeyID("fact_movie_metrics", mLid, dLid, cLid, lLid).String()

		budget := floatOrZero(r.Budget)
		revenue := floatOrZero(r.Revenue)
		row := FactRow{
			MovieLineageID:    mLid,
			DateLineageID:     dLid,
			CountryLineageID:  cLid,
			LanguageLineageID: lLid,
			Budget:            budget,
			Revenue:           revenue,
			Score:             floatOrZero(r.Score),
			Profit:            revenue - budget,
			LineageID:         lid,
		}
		if at, seen := factIdx[lid]; seen {
			t.Facts[at] = row
			continue
		}
		factIdx[lid] = len(t.Facts)
		t.Facts = append(t.Facts, row)
		lineage(lid, "fact_movie_metrics_build")
	}

	return t, nil
}

func movieLineageID(name, origTitle string) string {
	return identity.KeyID("dim_movie", name, origTitle).String()
}

func dateLineageID(parsed *time.Time) string {
	if parsed == nil {
		return identity.KeyID("dim_date", unknownDateKey).String()
	}
	return identity.KeyID(
		"dim_date",
		strconv.Itoa(parsed.Year()),
		strconv.Itoa(int(parsed.Month())),
		strconv.Itoa(parsed.Day()),
	).String()
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
