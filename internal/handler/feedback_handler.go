package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
)

// FeedbackHandler handles the student → institution feedback box.
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// Send godoc
// POST /api/v1/student/feedback
func (h *FeedbackHandler) Send(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateFeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	feedback, err := h.feedbackService.Send(c.Request.Context(), claims.InstitutionCode, claims.StudentID, req.Message)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"feedback": feedback})
}

// List godoc
// GET /api/v1/admin/feedback?page=&per_page=
func (h *FeedbackHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := paginationParams(c)

	items, total, err := h.feedbackService.ListByInstitution(c.Request.Context(), claims.InstitutionCode, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if items == nil {
		items = []model.Feedback{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"feedback": items}, buildPagination(page, perPage, total))
}
