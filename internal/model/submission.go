package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates quiz attempt states.
type SubmissionStatus string

const (
	SubmissionStatusInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionStatusSubmitted  SubmissionStatus = "SUBMITTED"
)

// Submission is one student's attempt at one quiz. At most one exists per
// (exam, student) pair; Score is meaningful only once Status is SUBMITTED.
type Submission struct {
	ID          uuid.UUID         `json:"id"`
	ExamID      uuid.UUID         `json:"exam_id"`
	StudentID   int               `json:"student_id"`
	StudentName string            `json:"student_name"`
	Answers     map[string]int    `json:"answers"` // question id → chosen option index
	Score       int               `json:"score"`
	Status      SubmissionStatus  `json:"status"`
	Late        bool              `json:"late"`
	StartedAt   time.Time         `json:"started_at"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	LastActive  time.Time         `json:"last_active"`
}

// SaveProgressRequest overwrites the full answer map (last writer wins).
type SaveProgressRequest struct {
	Answers map[string]int `json:"answers" binding:"required"`
}

// SubmitRequest finalizes an attempt. Answers are optional: when omitted the
// server finalizes with the last autosaved map.
type SubmitRequest struct {
	Answers map[string]int `json:"answers" binding:"omitempty"`
}

// SubmissionState is returned to a resuming client: what was answered so far
// and how many seconds remain on the attempt clock.
type SubmissionState struct {
	SubmissionID     uuid.UUID        `json:"submission_id"`
	ExamID           uuid.UUID        `json:"exam_id"`
	Status           SubmissionStatus `json:"status"`
	Answers          map[string]int   `json:"answers"`
	RemainingSeconds float64          `json:"remaining_seconds"`
}
