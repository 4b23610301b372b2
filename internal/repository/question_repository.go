package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// QuestionRepository handles quiz question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions for a given exam, ordered by position.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, position, question_text, options, correct_option, marks
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Position, &q.Text, &q.Options, &q.CorrectOption, &q.Marks); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// insertQuestions inserts a question set inside the caller's transaction,
// filling in generated IDs. Exam creation uses it so the exam row and its
// questions commit together.
func insertQuestions(ctx context.Context, tx pgx.Tx, questions []model.Question) error {
	for i := range questions {
		q := &questions[i]
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, position, question_text, options, correct_option, marks)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			q.ExamID, q.Position, q.Text, q.Options, q.CorrectOption, q.Marks,
		).Scan(&q.ID); err != nil {
			return err
		}
	}
	return nil
}

// MaxScore sums the marks of every question in an exam.
func (r *QuestionRepository) MaxScore(ctx context.Context, examID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(marks), 0) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&total)
	return total, err
}
