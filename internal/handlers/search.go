package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinelake/cinelake-backend/internal/services"
)

type SearchHandler struct {
	search services.SearchService
}

func NewSearchHandler(search services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// GET /search?query=...&genre=...&page=1&per_page=10
func (h *SearchHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	result, err := h.search.Search(
		c.Request.Context(),
		c.Query("query"),
		c.Query("genre"),
		page,
		perPage,
	)
	if err != nil {
		RespondServiceError(c, "search_failed", err)
		return
	}
	RespondOK(c, result)
}
