package model

import "time"

// Student represents an enrolled student within an institution.
type Student struct {
	ID              int       `json:"id"`
	InstitutionCode string    `json:"institution_code"`
	Name            string    `json:"name"`
	EnrollmentID    string    `json:"enrollment_id"`
	Batch           string    `json:"batch"`
	Section         string    `json:"section"`
	ParentPhone     *string   `json:"parent_phone,omitempty"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateStudentRequest is the payload for enrolling a new student.
// Password is optional; a default is applied when omitted so admins can
// bulk-enroll and let students change it later.
type CreateStudentRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=255"`
	EnrollmentID string  `json:"enrollment_id" binding:"required,min=1,max=50"`
	Batch        string  `json:"batch" binding:"required,max=100"`
	Section      string  `json:"section" binding:"required,max=100"`
	ParentPhone  *string `json:"parent_phone" binding:"omitempty,max=20"`
	Password     string  `json:"password" binding:"omitempty,min=6,max=72"`
}

// UpdateStudentPasswordRequest is the payload for changing a student's password.
type UpdateStudentPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}
