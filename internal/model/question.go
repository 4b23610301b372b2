package model

import "github.com/google/uuid"

// Question represents a single multiple-choice quiz item.
// Invariant: len(Options) >= 2 and 0 <= CorrectOption < len(Options).
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Position      int       `json:"position"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	Marks         int       `json:"marks"`
}

// AddQuestionRequest is the payload for one question inside exam creation.
type AddQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,dive,required,max=500"`
	CorrectOption int      `json:"correct_option" binding:"min=0"`
	Marks         int      `json:"marks" binding:"required,min=1,max=100"`
}
