package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
)

// QuizHandler handles the student-facing quiz lifecycle over REST:
// list, paper, start, state, progress, submit.
type QuizHandler struct {
	examService       *service.ExamService
	submissionService *service.SubmissionService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(examService *service.ExamService, submissionService *service.SubmissionService) *QuizHandler {
	return &QuizHandler{examService: examService, submissionService: submissionService}
}

// ListExams godoc
// GET /api/v1/student/exams
// Exams scheduled for the student's batch, live quizzes included.
func (h *QuizHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)

	exams, err := h.examService.ListForStudent(c.Request.Context(), claims.InstitutionCode, claims.Batch)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetPaper godoc
// GET /api/v1/student/exams/:exam_id/paper
// The quiz payload without correct answers. Requires an attempt in progress.
func (h *QuizHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	exam, ok := h.visibleExam(c, claims)
	if !ok {
		return
	}

	// Only participants may download the paper.
	if _, err := h.submissionService.State(c.Request.Context(), exam, claims.StudentID); err != nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	payload, err := h.examService.GetQuizPayload(c.Request.Context(), exam)
	if err != nil {
		if errors.Is(err, service.ErrNotAnOnlineQuiz) {
			response.Fail(c, http.StatusBadRequest, response.ErrNotAQuiz)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": payload})
}

// Start godoc
// POST /api/v1/student/exams/:exam_id/start
// Begins or resumes an attempt. Idempotent: one submission per student per
// exam, and the clock never resets.
func (h *QuizHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	exam, ok := h.visibleExam(c, claims)
	if !ok {
		return
	}

	state, err := h.submissionService.Start(c.Request.Context(), exam, claims.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotLive):
			response.Fail(c, http.StatusConflict, response.ErrExamNotLive)
		case errors.Is(err, service.ErrNotAnOnlineQuiz):
			response.Fail(c, http.StatusBadRequest, response.ErrNotAQuiz)
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// GetState godoc
// GET /api/v1/student/exams/:exam_id/state
// The resume view: saved answers and remaining seconds.
func (h *QuizHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	exam, ok := h.visibleExam(c, claims)
	if !ok {
		return
	}

	state, err := h.submissionService.State(c.Request.Context(), exam, claims.StudentID)
	if err != nil {
		if repository.ErrNoRows(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// SaveProgress godoc
// PUT /api/v1/student/submissions/:submission_id/progress
// Overwrites the full answer map (last writer wins).
func (h *QuizHandler) SaveProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	exam, sub, ok := h.ownedSubmission(c, claims)
	if !ok {
		return
	}

	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.submissionService.SaveProgress(c.Request.Context(), exam, sub, req.Answers); err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrInvalidQuestion):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Submit godoc
// POST /api/v1/student/submissions/:submission_id/submit
// Finalizes the attempt exactly once. A second submit is rejected.
func (h *QuizHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	exam, sub, ok := h.ownedSubmission(c, claims)
	if !ok {
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	final, err := h.submissionService.Finalize(c.Request.Context(), exam, sub, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrInvalidQuestion):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": final})
}

// MySubmission godoc
// GET /api/v1/student/exams/:exam_id/submission
// The student's finished attempt with its score once graded.
func (h *QuizHandler) MySubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	exam, ok := h.visibleExam(c, claims)
	if !ok {
		return
	}

	sub, err := h.submissionService.GetByExamAndStudent(c.Request.Context(), exam.ID, claims.StudentID)
	if err != nil {
		if repository.ErrNoRows(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

// visibleExam parses :exam_id and checks the exam belongs to the student's
// institution and batch.
func (h *QuizHandler) visibleExam(c *gin.Context, claims *service.Claims) (*model.Exam, bool) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil || exam.InstitutionCode != claims.InstitutionCode || exam.Batch != claims.Batch {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}
	return exam, true
}

// ownedSubmission parses :submission_id and verifies it belongs to the caller,
// returning the submission with its exam.
func (h *QuizHandler) ownedSubmission(c *gin.Context, claims *service.Claims) (*model.Exam, *model.Submission, bool) {
	subID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, nil, false
	}

	sub, err := h.submissionService.GetByID(c.Request.Context(), subID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, nil, false
	}
	if sub.StudentID != claims.StudentID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, nil, false
	}

	exam, err := h.examService.GetByID(c.Request.Context(), sub.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return nil, nil, false
	}
	return exam, sub, true
}
