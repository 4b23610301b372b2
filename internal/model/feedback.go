package model

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a message from a student to their institution's admin.
type Feedback struct {
	ID              uuid.UUID `json:"id"`
	InstitutionCode string    `json:"institution_code"`
	StudentID       int       `json:"student_id"`
	StudentName     string    `json:"student_name"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateFeedbackRequest is the payload for sending feedback.
type CreateFeedbackRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}
