package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cinelake/cinelake-backend/internal/services"
)

type GoldHandler struct {
	gold services.GoldService
}

func NewGoldHandler(gold services.GoldService) *GoldHandler {
	return &GoldHandler{gold: gold}
}

// GET /gold/revenue_by_genre
func (h *GoldHandler) RevenueByGenre(c *gin.Context) {
	rows, err := h.gold.RevenueByGenre(c.Request.Context())
	if err != nil {
		RespondServiceError(c, "gold_read_failed", err)
		return
	}
	RespondOK(c, gin.H{"revenue_by_genre": rows})
}

// GET /gold/avg_score_by_year
func (h *GoldHandler) AvgScoreByYear(c *gin.Context) {
	rows, err := h.gold.AvgScoreByYear(c.Request.Context())
	if err != nil {
		RespondServiceError(c, "gold_read_failed", err)
		return
	}
	RespondOK(c, gin.H{"avg_score_by_year": rows})
}
