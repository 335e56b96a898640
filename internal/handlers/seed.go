package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/cinelake/cinelake-backend/internal/services"
)

type SeedHandler struct {
	extractor services.ExtractorService
	bronze    services.BronzeService
}

func NewSeedHandler(extractor services.ExtractorService, bronze services.BronzeService) *SeedHandler {
	return &SeedHandler{extractor: extractor, bronze: bronze}
}

// POST /seed
// Accepts a multipart csv or json upload, ingests it into bronze and
// schedules a pipeline run. The response is 202 with the run id; pipeline
// failures surface on the run, not here.
func (h *SeedHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "seed-upload-*")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "seed_staging_failed", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		RespondError(c, http.StatusInternalServerError, "seed_staging_failed", err)
		return
	}

	records, err := h.extractor.ExtractFile(tmpPath)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "seed_extraction_failed", err)
		return
	}

	result, run, err := h.bronze.IngestBatch(c.Request.Context(), records, fileHeader.Filename)
	if err != nil {
		RespondServiceError(c, "seed_ingest_failed", err)
		return
	}

	payload := gin.H{"ingest": result}
	if run != nil {
		payload["run_id"] = run.ID
		payload["run_status"] = run.Status
	}
	RespondAccepted(c, payload)
}
