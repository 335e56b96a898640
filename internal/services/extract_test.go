package services

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestExtractCSVMapsByHeader(t *testing.T) {
	extractor := NewExtractorService(loaderTestLogger(t))
	path := writeSeedFile(t, "movies.csv",
		"names,date_x,score\nInception,07/16/2010,8.8\nTenet,08/26/2020,7.3\n")

	records, err := extractor.ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	if records[0]["names"] != "Inception" || records[0]["date_x"] != "07/16/2010" {
		t.Fatalf("first record = %v", records[0])
	}
}

func TestExtractJSONArray(t *testing.T) {
	extractor := NewExtractorService(loaderTestLogger(t))
	path := writeSeedFile(t, "movies.json",
		`[{"name": "Inception", "score": 8.8}]`)

	records, err := extractor.ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(records) != 1 || records[0]["name"] != "Inception" {
		t.Fatalf("records = %v", records)
	}
}

func TestExtractRejectsUnsupportedFormat(t *testing.T) {
	extractor := NewExtractorService(loaderTestLogger(t))
	path := writeSeedFile(t, "movies.xml", "<movies/>")
	if _, err := extractor.ExtractFile(path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestExtractRejectsJSONObject(t *testing.T) {
	extractor := NewExtractorService(loaderTestLogger(t))
	path := writeSeedFile(t, "movie.json", `{"name": "Solo"}`)
	if _, err := extractor.ExtractFile(path); err == nil {
		t.Fatal("expected error for non-array json")
	}
}
