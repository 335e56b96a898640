package services

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseLookupKey(t *testing.T) {
	id := uuid.New()

	got := ParseLookupKey(id.String())
	if got.byName || got.id != id {
		t.Fatalf("uuid key classified as %+v", got)
	}

	got = ParseLookupKey("The Matrix")
	if !got.byName || got.name != "The Matrix" {
		t.Fatalf("name key classified as %+v", got)
	}

	// A malformed uuid is treated as a plain name, not an error.
	got = ParseLookupKey("123e4567-not-a-uuid")
	if !got.byName {
		t.Fatalf("malformed uuid should fall back to name lookup, got %+v", got)
	}
}
