package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
)

// ExamHandler handles admin exam management: CRUD, lifecycle, results.
type ExamHandler struct {
	examService       *service.ExamService
	submissionService *service.SubmissionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, submissionService *service.SubmissionService) *ExamHandler {
	return &ExamHandler{examService: examService, submissionService: submissionService}
}

// Create godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), claims.InstitutionCode, claims.InstitutionCode, &req)
	if err != nil {
		if errors.Is(err, service.ErrNoQuestions) || errors.Is(err, service.ErrInvalidQuestion) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// List godoc
// GET /api/v1/admin/exams?batch=&status=&page=&per_page=
func (h *ExamHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := paginationParams(c)

	var batch *string
	if v := c.Query("batch"); v != "" {
		batch = &v
	}
	var status *model.ExamStatus
	if v := c.Query("status"); v != "" {
		s := model.ExamStatus(v)
		status = &s
	}

	exams, total, err := h.examService.List(c.Request.Context(), claims.InstitutionCode, batch, status, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, buildPagination(page, perPage, total))
}

// Get godoc
// GET /api/v1/admin/exams/:exam_id
func (h *ExamHandler) Get(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	data := gin.H{"exam": exam}
	if exam.Type == model.ExamTypeOnlineQuiz {
		questions, err := h.examService.Questions(c.Request.Context(), exam.ID)
		if err == nil {
			data["questions"] = questions
		}
	}

	response.Success(c, http.StatusOK, data)
}

// UpdateStatus godoc
// PUT /api/v1/admin/exams/:exam_id/status
// Admin-only lifecycle transition: SCHEDULED → LIVE → COMPLETED.
func (h *ExamHandler) UpdateStatus(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	var req model.UpdateExamStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.SetStatus(c.Request.Context(), exam, model.ExamStatus(req.Status)); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			response.Fail(c, http.StatusConflict, response.ErrInvalidTransition)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Delete godoc
// DELETE /api/v1/admin/exams/:exam_id
func (h *ExamHandler) Delete(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), exam.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// Results godoc
// GET /api/v1/admin/exams/:exam_id/results
// Submissions with scores, best first.
func (h *ExamHandler) Results(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}
	page, perPage := paginationParams(c)

	subs, total, err := h.submissionService.ListByExam(c.Request.Context(), exam.ID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": subs}, buildPagination(page, perPage, total))
}

// ownedExam parses :exam_id and verifies the exam belongs to the caller's
// institution. Writes the error response itself on failure.
func (h *ExamHandler) ownedExam(c *gin.Context) (*model.Exam, bool) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil || exam.InstitutionCode != claims.InstitutionCode {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}
	return exam, true
}
