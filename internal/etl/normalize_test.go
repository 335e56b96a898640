package etl

import (
	"testing"
	"time"
)

func TestResolveAliasesCanonicalNames(t *testing.T) {
	resolved, missing := ResolveAliases(map[string]any{
		"names":    "Inception",
		"date_x":   "07/16/2010",
		"budget_x": "160000000",
		"score":    "8.8",
		"genre":    "Action, Sci-Fi",
	})
	if resolved["name"] != "Inception" {
		t.Fatalf("name = %v", resolved["name"])
	}
	if resolved["release_date"] != "07/16/2010" {
		t.Fatalf("release_date = %v", resolved["release_date"])
	}
	if resolved["budget"] != "160000000" {
		t.Fatalf("budget = %v", resolved["budget"])
	}
	for _, f := range missing {
		if f == "name" || f == "release_date" || f == "budget" {
			t.Fatalf("%s reported missing despite alias", f)
		}
	}
}

func TestResolveAliasesNameWinsOverNames(t *testing.T) {
	resolved, _ := ResolveAliases(map[string]any{
		"name":  "Primary",
		"names": "Secondary",
	})
	if resolved["name"] != "Primary" {
		t.Fatalf("name = %v, want the canonical column to win", resolved["name"])
	}
}

func TestResolveAliasesReportsMissing(t *testing.T) {
	_, missing := ResolveAliases(map[string]any{"name": "Solo"})
	found := map[string]bool{}
	for _, f := range missing {
		found[f] = true
	}
	if found["name"] {
		t.Fatal("name reported missing")
	}
	if !found["release_date"] || !found["revenue"] {
		t.Fatalf("expected release_date and revenue in missing set, got %v", missing)
	}
}

func TestHasTitleField(t *testing.T) {
	if HasTitleField([]map[string]any{{"overview": "no title here"}}) {
		t.Fatal("batch without title fields reported as anchored")
	}
	if !HasTitleField([]map[string]any{{"overview": "x"}, {"names": "Late"}}) {
		t.Fatal("names alias not recognized as title anchor")
	}
	if !HasTitleField([]map[string]any{{"orig_title": "Original"}}) {
		t.Fatal("orig_title not recognized as title anchor")
	}
}

func TestParseReleaseDate(t *testing.T) {
	parsed := ParseReleaseDate("01/15/2020")
	if parsed == nil {
		t.Fatal("valid date parsed as nil")
	}
	want := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Fatalf("parsed = %v, want %v", parsed, want)
	}

	for _, bad := range []string{"", "2020-01-15", "13/45/2020", "garbage"} {
		if got := ParseReleaseDate(bad); got != nil {
			t.Fatalf("ParseReleaseDate(%q) = %v, want nil", bad, got)
		}
	}
}

func TestSplitGenres(t *testing.T) {
	got := SplitGenres("Action,  Drama , ,Sci-Fi")
	want := []string{"Action", "Drama", "Sci-Fi"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if SplitGenres("") != nil {
		t.Fatal("empty genre string should yield nil")
	}
}

func TestSplitCrewPairsAndOddTail(t *testing.T) {
	got := SplitCrew("Alice, Hero, Bob, Villain")
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[0].ActorName != "Alice" || got[0].CharacterName != "Hero" {
		t.Fatalf("first pair = %+v", got[0])
	}
	if got[1].ActorName != "Bob" || got[1].CharacterName != "Villain" {
		t.Fatalf("second pair = %+v", got[1])
	}

	// Odd trailing actor plays themselves.
	got = SplitCrew("Alice, Hero, Carol")
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[1].ActorName != "Carol" || got[1].CharacterName != "Self" {
		t.Fatalf("odd tail = %+v", got[1])
	}
}

func TestCoerceFloat(t *testing.T) {
	if v := CoerceFloat("7.5"); v == nil || *v != 7.5 {
		t.Fatalf("CoerceFloat(\"7.5\") = %v", v)
	}
	if v := CoerceFloat(42); v == nil || *v != 42 {
		t.Fatalf("CoerceFloat(42) = %v", v)
	}
	if v := CoerceFloat("not a number"); v != nil {
		t.Fatalf("CoerceFloat garbage = %v, want nil", v)
	}
	if v := CoerceFloat(nil); v != nil {
		t.Fatalf("CoerceFloat(nil) = %v, want nil", v)
	}
}

func TestFromMapNormalizesFields(t *testing.T) {
	raw := FromMap(map[string]any{
		"name":    "  Padded Title  ",
		"budget":  "100",
		"revenue": nil,
	})
	if raw.Name != "Padded Title" {
		t.Fatalf("name = %q", raw.Name)
	}
	if raw.Budget == nil || *raw.Budget != 100 {
		t.Fatalf("budget = %v", raw.Budget)
	}
	if raw.Revenue != nil {
		t.Fatalf("revenue = %v, want nil", raw.Revenue)
	}
}
