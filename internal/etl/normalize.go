package etl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the source system's release-date format (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// canonical field names, with the legacy aliases the source feed still uses
var (
	titleAliases  = []string{"name", "names", "orig_title"}
	dateAliases   = []string{"date_x", "release_date", "date"}
	budgetAliases = []string{"budget_x", "budget"}
)

// MandatoryFields must all be present (possibly empty) on an ingest record.
var MandatoryFields = []string{
	"name", "orig_title", "overview", "status", "release_date",
	"genre", "crew", "country", "orig_lang", "budget", "revenue", "score",
}

// RawRecord is one normalized bronze row as the pipeline sees it.
type RawRecord struct {
	ID          uuid.UUID
	Name        string
	OrigTitle   string
	Overview    string
	Status      string
	ReleaseDate string
	Genre       string
	Crew        string
	Country     string
	OrigLang    string
	Budget      *float64
	Revenue     *float64
	Score       *float64
}

// CrewMember is one parsed (actor, character) pair.
type CrewMember struct {
	ActorName     string `json:"actor_name"`
	CharacterName string `json:"character_name"`
}

// ResolveAliases rewrites a raw ingest map onto canonical field names and
// reports which mandatory fields are absent. Values are left untouched.
func ResolveAliases(record map[string]any) (map[string]any, []string) {
	out := make(map[string]any, len(record))
	canonical := map[string]bool{}
	for k, v := range record {
		key := strings.ToLower(strings.TrimSpace(k))
		aliased := false
		switch {
		case key == "names":
			key, aliased = "name", true
		case key == "date_x" || key == "date":
			key, aliased = "release_date", true
		case key == "budget_x":
			key, aliased = "budget", true
		}
		// a canonical column always wins over its aliases
		if aliased && canonical[key] {
			continue
		}
		if !aliased {
			canonical[key] = true
		}
		out[key] = v
	}

	var missing []string
	for _, f := range MandatoryFields {
		if _, ok := out[f]; !ok {
			missing = append(missing, f)
		}
	}
	return out, missing
}

// HasTitleField reports whether a batch of raw maps carries any usable
// title column. A batch without one cannot anchor the star schema.
func HasTitleField(records []map[string]any) bool {
	for _, r := range records {
		for k := range r {
			key := strings.ToLower(strings.TrimSpace(k))
			for _, alias := range titleAliases {
				if key == alias {
					return true
				}
			}
		}
	}
	return false
}

// HasDateField reports whether a batch carries any recognized date column.
func HasDateField(records []map[string]any) bool {
	for _, r := range records {
		for k := range r {
			key := strings.ToLower(strings.TrimSpace(k))
			for _, alias := range dateAliases {
				if key == alias {
					return true
				}
			}
		}
	}
	return false
}

// ParseReleaseDate parses the raw release-date string, returning nil for
// anything unparseable. Malformed dates never fail a batch.
func ParseReleaseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// SplitGenres splits the serialized genre list on commas, trimming each
// entry and dropping empties.
func SplitGenres(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitCrew splits the serialized crew list into alternating
// (actor, character) pairs. An unpaired trailing actor plays "Self".
func SplitCrew(s string) []CrewMember {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	names := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	pairs := make([]CrewMember, 0, (len(names)+1)/2)
	for i := 0; i < len(names); i += 2 {
		if i+1 < len(names) {
			pairs = append(pairs, CrewMember{ActorName: names[i], CharacterName: names[i+1]})
		} else {
			pairs = append(pairs, CrewMember{ActorName: names[i], CharacterName: "Self"})
		}
	}
	return pairs
}

// CoerceFloat converts a raw metric value to *float64, returning nil for
// anything non-numeric. Malformed metrics never fail a batch.
func CoerceFloat(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case float32:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprintf("%v", val)), 64)
		if err != nil {
			return nil
		}
		return &f
	}
}

func stringField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// FromMap builds a normalized RawRecord from an alias-resolved ingest map.
func FromMap(resolved map[string]any) RawRecord {
	return RawRecord{
		Name:        stringField(resolved["name"]),
		OrigTitle:   stringField(resolved["orig_title"]),
		Overview:    stringField(resolved["overview"]),
		Status:      stringField(resolved["status"]),
		ReleaseDate: stringField(resolved["release_date"]),
		Genre:       stringField(resolved["genre"]),
		Crew:        stringField(resolved["crew"]),
		Country:     stringField(resolved["country"]),
		OrigLang:    stringField(resolved["orig_lang"]),
		Budget:      CoerceFloat(resolved["budget"]),
		Revenue:     CoerceFloat(resolved["revenue"]),
		Score:       CoerceFloat(resolved["score"]),
	}
}

// IdentityFields renders the record in the map form the identity assigner
// canonicalizes. Used by both ingest and the transform so every stage
// derives identities from the same view of the record.
func (r RawRecord) IdentityFields() map[string]any {
	return map[string]any{
		"name":         r.Name,
		"orig_title":   r.OrigTitle,
		"overview":     r.Overview,
		"status":       r.Status,
		"release_date": r.ReleaseDate,
		"genre":        r.Genre,
		"crew":         r.Crew,
		"country":      r.Country,
		"orig_lang":    r.OrigLang,
		"budget":       r.Budget,
		"revenue":      r.Revenue,
		"score":        r.Score,
	}
}
