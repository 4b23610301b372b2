package scoring

import (
	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// Score computes the total marks for a submission by exact answer matching.
// answers maps question ID to the chosen option index. Unanswered questions
// and out-of-range indexes earn zero; unknown question IDs are ignored.
func Score(questions []model.Question, answers map[string]int) int {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID.String()] = q
	}

	total := 0
	for qid, chosen := range answers {
		q, ok := byID[qid]
		if !ok {
			continue
		}
		if chosen < 0 || chosen >= len(q.Options) {
			continue
		}
		if chosen == q.CorrectOption {
			total += q.Marks
		}
	}
	return total
}

// MaxScore sums the marks of every question in the set.
func MaxScore(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	return total
}

// ValidateAnswers reports whether every answered question ID belongs to the
// question set and every chosen index is inside that question's option range.
// It returns the first offending question ID, or "" when all answers are valid.
func ValidateAnswers(questions []model.Question, answers map[string]int) string {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID.String()] = q
	}
	for qid, chosen := range answers {
		q, ok := byID[qid]
		if !ok {
			return qid
		}
		if chosen < 0 || chosen >= len(q.Options) {
			return qid
		}
	}
	return ""
}
