package scoring

import (
	"testing"

	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

func makeQuestions() []model.Question {
	return []model.Question{
		{
			ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Position:      1,
			Text:          "2 + 2 = ?",
			Options:       []string{"3", "4", "5", "6"},
			CorrectOption: 1,
			Marks:         2,
		},
		{
			ID:            uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Position:      2,
			Text:          "Capital of France?",
			Options:       []string{"Paris", "Lyon"},
			CorrectOption: 0,
			Marks:         3,
		},
		{
			ID:            uuid.MustParse("33333333-3333-3333-3333-333333333333"),
			Position:      3,
			Text:          "H2O is?",
			Options:       []string{"Salt", "Water", "Air"},
			CorrectOption: 1,
			Marks:         5,
		},
	}
}

func TestScore(t *testing.T) {
	questions := makeQuestions()

	tests := []struct {
		name    string
		answers map[string]int
		want    int
	}{
		{
			name: "all correct",
			answers: map[string]int{
				"11111111-1111-1111-1111-111111111111": 1,
				"22222222-2222-2222-2222-222222222222": 0,
				"33333333-3333-3333-3333-333333333333": 1,
			},
			want: 10,
		},
		{
			name: "partial correct",
			answers: map[string]int{
				"11111111-1111-1111-1111-111111111111": 1,
				"22222222-2222-2222-2222-222222222222": 1,
			},
			want: 2,
		},
		{
			name:    "empty answers",
			answers: map[string]int{},
			want:    0,
		},
		{
			name:    "nil answers",
			answers: nil,
			want:    0,
		},
		{
			name: "unknown question id ignored",
			answers: map[string]int{
				"99999999-9999-9999-9999-999999999999": 0,
				"33333333-3333-3333-3333-333333333333": 1,
			},
			want: 5,
		},
		{
			name: "out of range index earns zero",
			answers: map[string]int{
				"22222222-2222-2222-2222-222222222222": 5,
				"11111111-1111-1111-1111-111111111111": -1,
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(questions, tt.answers)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreNoQuestions(t *testing.T) {
	got := Score(nil, map[string]int{"x": 0})
	if got != 0 {
		t.Errorf("Score() = %d, want 0", got)
	}
}

func TestMaxScore(t *testing.T) {
	if got := MaxScore(makeQuestions()); got != 10 {
		t.Errorf("MaxScore() = %d, want 10", got)
	}
	if got := MaxScore(nil); got != 0 {
		t.Errorf("MaxScore(nil) = %d, want 0", got)
	}
}

func TestValidateAnswers(t *testing.T) {
	questions := makeQuestions()

	if bad := ValidateAnswers(questions, map[string]int{
		"11111111-1111-1111-1111-111111111111": 3,
		"22222222-2222-2222-2222-222222222222": 0,
	}); bad != "" {
		t.Errorf("ValidateAnswers() = %q, want empty", bad)
	}

	if bad := ValidateAnswers(questions, map[string]int{
		"99999999-9999-9999-9999-999999999999": 0,
	}); bad != "99999999-9999-9999-9999-999999999999" {
		t.Errorf("ValidateAnswers() unknown id = %q", bad)
	}

	if bad := ValidateAnswers(questions, map[string]int{
		"22222222-2222-2222-2222-222222222222": 2,
	}); bad != "22222222-2222-2222-2222-222222222222" {
		t.Errorf("ValidateAnswers() out of range = %q", bad)
	}
}
