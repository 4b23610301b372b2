package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
)

// NotificationHandler handles institution announcements.
type NotificationHandler struct {
	notificationService *service.NotificationService
	studentService      *service.StudentService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService, studentService *service.StudentService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, studentService: studentService}
}

// Publish godoc
// POST /api/v1/admin/notifications
// Announces to the whole institution, or one batch when target_batch is set.
func (h *NotificationHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateNotificationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	notification, err := h.notificationService.Publish(c.Request.Context(), claims.InstitutionCode, claims.InstitutionCode, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"notification": notification})
}

// List godoc
// GET /api/v1/admin/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	notifications, err := h.notificationService.ListByInstitution(c.Request.Context(), claims.InstitutionCode)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	response.Success(c, http.StatusOK, gin.H{"notifications": notifications})
}

// Delete godoc
// DELETE /api/v1/admin/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// Feed godoc
// GET /api/v1/student/notifications
// Announcements visible to the caller's batch, newest first.
func (h *NotificationHandler) Feed(c *gin.Context) {
	claims := middleware.GetClaims(c)

	// Parent tokens carry no batch; resolve it through the linked student.
	batch := claims.Batch
	if batch == "" {
		student, err := h.studentService.GetByID(c.Request.Context(), claims.StudentID)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		batch = student.Batch
	}

	notifications, err := h.notificationService.FeedForBatch(c.Request.Context(), claims.InstitutionCode, batch)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	response.Success(c, http.StatusOK, gin.H{"notifications": notifications})
}
