package model

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is a per-term attendance summary for one student.
// One record exists per (student, term); posting again overwrites the counts.
type Attendance struct {
	ID              uuid.UUID `json:"id"`
	InstitutionCode string    `json:"institution_code"`
	StudentID       int       `json:"student_id"`
	Term            string    `json:"term"`
	TotalDays       int       `json:"total_days"`
	PresentDays     int       `json:"present_days"`
	LastUpdated     time.Time `json:"last_updated"`
}

// UpsertAttendanceRequest creates or overwrites a student's term attendance.
type UpsertAttendanceRequest struct {
	StudentID   int    `json:"student_id" binding:"required"`
	Term        string `json:"term" binding:"required,max=100"`
	TotalDays   int    `json:"total_days" binding:"required,min=1"`
	PresentDays int    `json:"present_days" binding:"min=0"`
}
