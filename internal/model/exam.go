package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
// Transitions are monotonic: SCHEDULED → LIVE → COMPLETED.
type ExamStatus string

const (
	ExamStatusScheduled ExamStatus = "SCHEDULED"
	ExamStatusLive      ExamStatus = "LIVE"
	ExamStatusCompleted ExamStatus = "COMPLETED"
)

// ExamType distinguishes paper exams from in-app timed quizzes.
type ExamType string

const (
	ExamTypeOffline    ExamType = "OFFLINE"
	ExamTypeOnlineQuiz ExamType = "ONLINE_QUIZ"
)

// Exam represents a scheduled assessment for a batch.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	InstitutionCode string     `json:"institution_code"`
	Title           string     `json:"title"`
	Type            ExamType   `json:"type"`
	Batch           string     `json:"batch"`
	Subject         string     `json:"subject"`
	ExamDate        string     `json:"date"`       // YYYY-MM-DD
	StartTime       string     `json:"start_time"` // HH:mm
	DurationMinutes int        `json:"duration_minutes"`
	Status          ExamStatus `json:"status"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for scheduling a new exam.
// Questions are required for ONLINE_QUIZ and ignored for OFFLINE.
type CreateExamRequest struct {
	Title           string                `json:"title" binding:"required,min=3,max=255"`
	Type            string                `json:"type" binding:"required,oneof=OFFLINE ONLINE_QUIZ"`
	Batch           string                `json:"batch" binding:"required,max=100"`
	Subject         string                `json:"subject" binding:"required,max=100"`
	ExamDate        string                `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime       string                `json:"start_time" binding:"required,datetime=15:04"`
	DurationMinutes int                   `json:"duration_minutes" binding:"required,min=1,max=480"`
	Questions       []AddQuestionRequest  `json:"questions" binding:"omitempty,dive"`
}

// UpdateExamStatusRequest is the payload for an admin status transition.
type UpdateExamStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=SCHEDULED LIVE COMPLETED"`
}

// QuizPayload is the Redis-cached quiz sent to students (no correct answers).
type QuizPayload struct {
	ExamID    uuid.UUID            `json:"exam_id"`
	Title     string               `json:"title"`
	Subject   string               `json:"subject"`
	Duration  int                  `json:"duration_minutes"`
	Questions []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without the correct answer or marks key,
// safe to send to an exam taker.
type QuestionForStudent struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Options  []string  `json:"options"`
	Marks    int       `json:"marks"`
	Position int       `json:"position"`
}
