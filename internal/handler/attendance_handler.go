package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
)

// AttendanceHandler handles per-term attendance summaries.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
	studentService    *service.StudentService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService, studentService *service.StudentService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, studentService: studentService}
}

// Upsert godoc
// POST /api/v1/admin/attendance
// Creates or replaces a student's summary for a term.
func (h *AttendanceHandler) Upsert(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.UpsertAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), req.StudentID)
	if err != nil || student.InstitutionCode != claims.InstitutionCode {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	attendance, err := h.attendanceService.Upsert(c.Request.Context(), claims.InstitutionCode, &req)
	if err != nil {
		if errors.Is(err, service.ErrAttendanceBounds) {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": attendance})
}

// MyAttendance godoc
// GET /api/v1/student/attendance
// The caller's term summaries. Parent tokens see the linked student's records.
func (h *AttendanceHandler) MyAttendance(c *gin.Context) {
	claims := middleware.GetClaims(c)

	records, err := h.attendanceService.ListByStudent(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if records == nil {
		records = []model.Attendance{}
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": records})
}
