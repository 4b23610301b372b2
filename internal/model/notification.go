package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an announcement to a whole institution or one batch.
type Notification struct {
	ID              uuid.UUID `json:"id"`
	InstitutionCode string    `json:"institution_code"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	TargetBatch     *string   `json:"target_batch,omitempty"` // nil = everyone
	SenderName      string    `json:"sender_name"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateNotificationRequest is the payload for publishing a notification.
type CreateNotificationRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Message     string  `json:"message" binding:"required,min=1,max=5000"`
	TargetBatch *string `json:"target_batch" binding:"omitempty,max=100"`
}
