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
)

// FileHandler handles shared document uploads and feeds.
type FileHandler struct {
	mediaService   *service.MediaService
	studentService *service.StudentService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(mediaService *service.MediaService, studentService *service.StudentService) *FileHandler {
	return &FileHandler{mediaService: mediaService, studentService: studentService}
}

// Upload godoc
// POST /api/v1/admin/files
// Multipart upload: "file" plus optional "category" and "target_batch" fields.
func (h *FileHandler) Upload(c *gin.Context) {
	claims := middleware.GetClaims(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	category := parseFileCategory(c.PostForm("category"))
	var targetBatch *string
	if v := c.PostForm("target_batch"); v != "" {
		targetBatch = &v
	}

	shared, err := h.mediaService.SaveUpload(c.Request.Context(), claims.InstitutionCode, claims.InstitutionCode, category, targetBatch, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"file": shared})
}

// List godoc
// GET /api/v1/admin/files
func (h *FileHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	files, err := h.mediaService.ListByInstitution(c.Request.Context(), claims.InstitutionCode)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if files == nil {
		files = []model.SharedFile{}
	}

	response.Success(c, http.StatusOK, gin.H{"files": files})
}

// Delete godoc
// DELETE /api/v1/admin/files/:id
// Removes the metadata row and unlinks the bytes on disk.
func (h *FileHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.mediaService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// Feed godoc
// GET /api/v1/student/files
// Documents visible to the caller's batch.
func (h *FileHandler) Feed(c *gin.Context) {
	claims := middleware.GetClaims(c)

	batch := claims.Batch
	if batch == "" {
		student, err := h.studentService.GetByID(c.Request.Context(), claims.StudentID)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		batch = student.Batch
	}

	files, err := h.mediaService.ListForBatch(c.Request.Context(), claims.InstitutionCode, batch)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if files == nil {
		files = []model.SharedFile{}
	}

	response.Success(c, http.StatusOK, gin.H{"files": files})
}

func parseFileCategory(raw string) model.FileCategory {
	switch model.FileCategory(raw) {
	case model.FileCategoryResult, model.FileCategorySchedule, model.FileCategoryCircular:
		return model.FileCategory(raw)
	default:
		return model.FileCategoryOther
	}
}
