package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is a published mark for a student in one exam/subject.
type Result struct {
	ID              uuid.UUID `json:"id"`
	InstitutionCode string    `json:"institution_code"`
	StudentID       int       `json:"student_id"`
	Subject         string    `json:"subject"`
	MarksObtained   int       `json:"marks_obtained"`
	TotalMarks      int       `json:"total_marks"`
	ExamName        string    `json:"exam_name"`
	Term            string    `json:"term"`
	ExamDate        string    `json:"date"` // YYYY-MM-DD
	UploadedBy      string    `json:"uploaded_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateResultRequest is the payload for publishing a result.
type CreateResultRequest struct {
	StudentID     int    `json:"student_id" binding:"required"`
	Subject       string `json:"subject" binding:"required,max=100"`
	MarksObtained int    `json:"marks_obtained" binding:"min=0"`
	TotalMarks    int    `json:"total_marks" binding:"required,min=1"`
	ExamName      string `json:"exam_name" binding:"required,max=255"`
	Term          string `json:"term" binding:"required,max=100"`
	ExamDate      string `json:"date" binding:"required,datetime=2006-01-02"`
}
