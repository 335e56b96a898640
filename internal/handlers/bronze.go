package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinelake/cinelake-backend/internal/services"
	"github.com/cinelake/cinelake-backend/internal/types"
)

type BronzeHandler struct {
	bronze services.BronzeService
}

func NewBronzeHandler(bronze services.BronzeService) *BronzeHandler {
	return &BronzeHandler{bronze: bronze}
}

// GET /raw/data
func (h *BronzeHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rows, total, err := h.bronze.List(c.Request.Context(), offset, limit)
	if err != nil {
		RespondServiceError(c, "bronze_list_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"total":  total,
		"offset": offset,
		"movies": rows,
	})
}

// GET /raw/data/:key
// The key is either the record's identity uuid or a movie name; the form
// is classified once here, not inside the service.
func (h *BronzeHandler) Get(c *gin.Context) {
	row, err := h.bronze.Get(c.Request.Context(), services.ParseLookupKey(c.Param("key")))
	if err != nil {
		RespondServiceError(c, "bronze_get_failed", err)
		return
	}
	RespondOK(c, gin.H{"movie": row})
}

// POST /raw/data
func (h *BronzeHandler) Create(c *gin.Context) {
	var input services.MovieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	row, run, err := h.bronze.Create(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, "bronze_create_failed", err)
		return
	}
	RespondAccepted(c, mutationPayload(row, run))
}

// PUT /raw/data/:key
func (h *BronzeHandler) Update(c *gin.Context) {
	var input services.MovieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	row, run, err := h.bronze.Update(c.Request.Context(), services.ParseLookupKey(c.Param("key")), input)
	if err != nil {
		RespondServiceError(c, "bronze_update_failed", err)
		return
	}
	RespondAccepted(c, mutationPayload(row, run))
}

// DELETE /raw/data/:key
func (h *BronzeHandler) Delete(c *gin.Context) {
	run, err := h.bronze.Delete(c.Request.Context(), services.ParseLookupKey(c.Param("key")))
	if err != nil {
		RespondServiceError(c, "bronze_delete_failed", err)
		return
	}
	RespondAccepted(c, mutationPayload(nil, run))
}

func mutationPayload(row *types.BronzeMovie, run *types.PipelineRun) gin.H {
	payload := gin.H{}
	if row != nil {
		payload["movie"] = row
	}
	if run != nil {
		payload["run_id"] = run.ID
		payload["run_status"] = run.Status
	}
	return payload
}
