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

// ResultHandler handles published (offline) exam results.
type ResultHandler struct {
	resultService  *service.ResultService
	studentService *service.StudentService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, studentService *service.StudentService) *ResultHandler {
	return &ResultHandler{resultService: resultService, studentService: studentService}
}

// Publish godoc
// POST /api/v1/admin/results
func (h *ResultHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), req.StudentID)
	if err != nil || student.InstitutionCode != claims.InstitutionCode {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	result, err := h.resultService.Publish(c.Request.Context(), claims.InstitutionCode, claims.InstitutionCode, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"result": result})
}

// List godoc
// GET /api/v1/admin/results?page=&per_page=
func (h *ResultHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := paginationParams(c)

	results, total, err := h.resultService.ListByInstitution(c.Request.Context(), claims.InstitutionCode, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.Result{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, buildPagination(page, perPage, total))
}

// SubjectAverages godoc
// GET /api/v1/admin/results/averages
// Per-subject percentage averages across the institution.
func (h *ResultHandler) SubjectAverages(c *gin.Context) {
	claims := middleware.GetClaims(c)

	averages, err := h.resultService.SubjectAverages(c.Request.Context(), claims.InstitutionCode)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"averages": averages})
}

// MyResults godoc
// GET /api/v1/student/results
// The caller's result history. Parent tokens see the linked student's records.
func (h *ResultHandler) MyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)

	results, err := h.resultService.ListByStudent(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.Result{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
