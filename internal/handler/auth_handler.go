package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
)

// AuthHandler handles registration and the three login flows.
type AuthHandler struct {
	institutionService *service.InstitutionService
	studentService     *service.StudentService
	authService        *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	institutionService *service.InstitutionService,
	studentService *service.StudentService,
	authService *service.AuthService,
) *AuthHandler {
	return &AuthHandler{
		institutionService: institutionService,
		studentService:     studentService,
		authService:        authService,
	}
}

// RegisterInstitution godoc
// POST /api/v1/auth/institutions/register
// Creates an institution and returns its generated login code.
func (h *AuthHandler) RegisterInstitution(c *gin.Context) {
	var req model.RegisterInstitutionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	inst, err := h.institutionService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"institution": inst})
}

type adminLoginRequest struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	inst, token, err := h.institutionService.Login(c.Request.Context(), req.Code, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "institution": inst})
}

type studentLoginRequest struct {
	InstitutionCode string `json:"institution_code" binding:"required"`
	EnrollmentID    string `json:"enrollment_id" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req studentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, token, err := h.studentService.Login(c.Request.Context(), req.InstitutionCode, req.EnrollmentID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrSessionAlreadyActive):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "student": student})
}

type parentLoginRequest struct {
	InstitutionCode string `json:"institution_code" binding:"required"`
	EnrollmentID    string `json:"enrollment_id" binding:"required"`
	ParentPhone     string `json:"parent_phone" binding:"required"`
}

// ParentLogin godoc
// POST /api/v1/auth/parent/login
// Grants a read-only token scoped to one student's records.
func (h *AuthHandler) ParentLogin(c *gin.Context) {
	var req parentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, token, err := h.studentService.ParentLogin(c.Request.Context(), req.InstitutionCode, req.EnrollmentID, req.ParentPhone)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "student": student})
}

// LookupInstitution godoc
// GET /api/v1/institutions/:code
// Public lookup used by the login screens to show the institution's name
// before credentials are entered.
func (h *AuthHandler) LookupInstitution(c *gin.Context) {
	inst, err := h.institutionService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// Logout godoc
// POST /api/v1/student/logout
// Releases the student's single-device session so another device can log in.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.authService.ResetStudentSession(c.Request.Context(), claims.StudentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "logged out"})
}

// ResetStudentSession godoc
// DELETE /api/v1/admin/students/:id/session
// Clears a student's single-device session so they can log in again.
func (h *AuthHandler) ResetStudentSession(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), studentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "session reset"})
}

// Profile godoc
// GET /api/v1/admin/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := middleware.GetClaims(c)

	inst, err := h.institutionService.GetByCode(c.Request.Context(), claims.InstitutionCode)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// Me godoc
// GET /api/v1/me
// Returns the authenticated principal's claims.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"token_type":       claims.TokenType,
		"institution_code": claims.InstitutionCode,
		"student_id":       claims.StudentID,
		"batch":            claims.Batch,
	})
}
