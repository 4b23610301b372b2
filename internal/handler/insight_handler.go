package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

// InsightHandler serves AI-generated performance summaries.
type InsightHandler struct {
	insightService *service.InsightService
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(insightService *service.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// PerformanceSummary godoc
// GET /api/v1/admin/insights/performance
// A natural-language summary of the institution's subject averages.
func (h *InsightHandler) PerformanceSummary(c *gin.Context) {
	claims := middleware.GetClaims(c)

	summary, err := h.insightService.PerformanceSummary(c.Request.Context(), claims.InstitutionCode)
	if err != nil {
		if errors.Is(err, service.ErrInsightsDisabled) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrInsightsDisabled)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}
