package model

import "time"

// InstitutionType distinguishes schools from colleges.
type InstitutionType string

const (
	InstitutionTypeSchool  InstitutionType = "SCHOOL"
	InstitutionTypeCollege InstitutionType = "COLLEGE"
)

// Institution represents a registered school or college. Code doubles as the
// tenant identifier (e.g. SCH-1042) and is what admins and students log in with.
type Institution struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          InstitutionType `json:"type"`
	Address       string          `json:"address"`
	Contact       string          `json:"contact"`
	PrincipalName string          `json:"principal_name"`
	PasswordHash  string          `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RegisterInstitutionRequest is the payload for registering a new institution.
type RegisterInstitutionRequest struct {
	Name          string `json:"name" binding:"required,min=3,max=255"`
	Type          string `json:"type" binding:"required,oneof=SCHOOL COLLEGE"`
	Address       string `json:"address" binding:"required,max=500"`
	Contact       string `json:"contact" binding:"required,max=50"`
	PrincipalName string `json:"principal_name" binding:"required,max=255"`
	Password      string `json:"password" binding:"required,min=6,max=72"`
}
