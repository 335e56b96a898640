package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cinelake/cinelake-backend/internal/services"
)

type RunsHandler struct {
	pipeline services.PipelineService
}

func NewRunsHandler(pipeline services.PipelineService) *RunsHandler {
	return &RunsHandler{pipeline: pipeline}
}

// GET /etl/runs/:id
func (h *RunsHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.pipeline.GetRun(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, "run_not_found", err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /etl/runs/:id/status
func (h *RunsHandler) GetRunStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	status, err := h.pipeline.RunStatus(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, "run_not_found", err)
		return
	}
	RespondOK(c, gin.H{"run_id": id, "status": status})
}

// POST /etl/runs
// Operational trigger for a full pass outside the mutation flow.
func (h *RunsHandler) TriggerRun(c *gin.Context) {
	run, err := h.pipeline.Schedule(c.Request.Context(), "manual")
	if err != nil {
		RespondServiceError(c, "run_schedule_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"run_id": run.ID, "status": run.Status})
}
