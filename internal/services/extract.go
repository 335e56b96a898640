package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cinelake/cinelake-backend/internal/platform/logger"
)

// ExtractorService turns a dropped seed file into raw ingest maps. CSV
// columns map by header name; JSON files must hold an array of objects.
// Alias resolution happens downstream, so extraction stays format-only.
type ExtractorService interface {
	ExtractFile(path string) ([]map[string]any, error)
}

type extractorService struct {
	log *logger.Logger
}

func NewExtractorService(baseLog *logger.Logger) ExtractorService {
	return &extractorService{log: baseLog.With("service", "ExtractorService")}
}

func (s *extractorService) ExtractFile(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return s.extractCSV(f)
	case ".json":
		return s.extractJSON(f)
	default:
		return nil, fmt.Errorf("unsupported seed format %q", filepath.Ext(path))
	}
}

func (s *extractorService) extractCSV(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("seed file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]any
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}
		record := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			}
		}
		records = append(records, record)
	}
	s.log.Debug("Extracted csv records", "count", len(records))
	return records, nil
}

func (s *extractorService) extractJSON(r io.Reader) ([]map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("seed json must be an array of objects: %w", err)
	}
	s.log.Debug("Extracted json records", "count", len(records))
	return records, nil
}
