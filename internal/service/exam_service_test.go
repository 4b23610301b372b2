package service

import (
	"context"
	"errors"
	"testing"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from model.ExamStatus
		to   model.ExamStatus
		want bool
	}{
		{"scheduled to live", model.ExamStatusScheduled, model.ExamStatusLive, true},
		{"live to completed", model.ExamStatusLive, model.ExamStatusCompleted, true},
		{"scheduled to completed skips live", model.ExamStatusScheduled, model.ExamStatusCompleted, false},
		{"live back to scheduled", model.ExamStatusLive, model.ExamStatusScheduled, false},
		{"completed to live", model.ExamStatusCompleted, model.ExamStatusLive, false},
		{"completed to scheduled", model.ExamStatusCompleted, model.ExamStatusScheduled, false},
		{"scheduled to scheduled", model.ExamStatusScheduled, model.ExamStatusScheduled, false},
		{"live to live", model.ExamStatusLive, model.ExamStatusLive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// Quiz validation runs before any row is written, so a bad request must fail
// without the service ever touching its repositories.
func TestCreateRejectsInvalidQuiz(t *testing.T) {
	svc := &ExamService{}
	ctx := context.Background()

	base := model.CreateExamRequest{
		Title:           "Algebra Checkpoint",
		Type:            string(model.ExamTypeOnlineQuiz),
		Batch:           "2026-A",
		Subject:         "Mathematics",
		ExamDate:        "2026-09-10",
		StartTime:       "09:00",
		DurationMinutes: 30,
	}

	t.Run("quiz without questions", func(t *testing.T) {
		req := base
		if _, err := svc.Create(ctx, "SCH001", "admin", &req); !errors.Is(err, ErrNoQuestions) {
			t.Errorf("Create() error = %v, want ErrNoQuestions", err)
		}
	})

	t.Run("correct option out of range", func(t *testing.T) {
		req := base
		req.Questions = []model.AddQuestionRequest{
			{Text: "2 + 2 = ?", Options: []string{"3", "4"}, CorrectOption: 2, Marks: 5},
		}
		if _, err := svc.Create(ctx, "SCH001", "admin", &req); !errors.Is(err, ErrInvalidQuestion) {
			t.Errorf("Create() error = %v, want ErrInvalidQuestion", err)
		}
	})
}
