package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// Lifecycle errors.
var (
	ErrInvalidTransition = errors.New("invalid exam status transition")
	ErrNotAnOnlineQuiz   = errors.New("exam is not an online quiz")
	ErrNoQuestions       = errors.New("an online quiz needs at least one question")
)

// ExamService handles exam CRUD and the SCHEDULED → LIVE → COMPLETED lifecycle.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// CanTransition reports whether an exam may move between two statuses.
// The lifecycle is monotonic: SCHEDULED → LIVE → COMPLETED, no skips,
// no going back.
func CanTransition(from, to model.ExamStatus) bool {
	switch from {
	case model.ExamStatusScheduled:
		return to == model.ExamStatusLive
	case model.ExamStatusLive:
		return to == model.ExamStatusCompleted
	default:
		return false
	}
}

// Create schedules a new exam. For online quizzes the question set is
// validated and stored atomically with the exam.
func (s *ExamService) Create(ctx context.Context, institutionCode, createdBy string, req *model.CreateExamRequest) (*model.Exam, error) {
	examType := model.ExamType(req.Type)

	if examType == model.ExamTypeOnlineQuiz && len(req.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	for i, q := range req.Questions {
		if q.CorrectOption >= len(q.Options) {
			return nil, fmt.Errorf("%w: question %d correct_option out of range", ErrInvalidQuestion, i+1)
		}
	}

	exam := &model.Exam{
		InstitutionCode: institutionCode,
		Title:           req.Title,
		Type:            examType,
		Batch:           req.Batch,
		Subject:         req.Subject,
		ExamDate:        req.ExamDate,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       createdBy,
	}

	var questions []model.Question
	if examType == model.ExamTypeOnlineQuiz {
		questions = make([]model.Question, len(req.Questions))
		for i, q := range req.Questions {
			questions[i] = model.Question{
				Position:      i + 1,
				Text:          q.Text,
				Options:       q.Options,
				CorrectOption: q.CorrectOption,
				Marks:         q.Marks,
			}
		}
	}

	// One transaction for the exam row and its questions. A quiz must never
	// exist half-created; it would otherwise go LIVE with no questions.
	if err := s.examRepo.CreateWithQuestions(ctx, exam, questions); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	return exam, nil
}

// GetByID fetches one exam.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List fetches exams of an institution with filters.
func (s *ExamService) List(ctx context.Context, institutionCode string, batch *string, status *model.ExamStatus, page, perPage int) ([]model.Exam, int64, error) {
	return s.examRepo.List(ctx, institutionCode, batch, status, page, perPage)
}

// ListForStudent fetches exams visible to a student's batch.
func (s *ExamService) ListForStudent(ctx context.Context, institutionCode, batch string) ([]model.Exam, error) {
	return s.examRepo.ListByBatch(ctx, institutionCode, batch)
}

// SetStatus transitions an exam. Only the creating institution may do this,
// and only along the monotonic lifecycle. Going LIVE warms the quiz payload
// and answer key into Redis; COMPLETED evicts them.
func (s *ExamService) SetStatus(ctx context.Context, exam *model.Exam, to model.ExamStatus) error {
	if !CanTransition(exam.Status, to) {
		return ErrInvalidTransition
	}

	// A quiz with no questions must not go LIVE. Creation guarantees this for
	// new exams; the check here also covers rows predating that guarantee.
	var questions []model.Question
	if exam.Type == model.ExamTypeOnlineQuiz && to == model.ExamStatusLive {
		var err error
		questions, err = s.questionRepo.ListByExam(ctx, exam.ID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		if len(questions) == 0 {
			return ErrNoQuestions
		}
	}

	ok, err := s.examRepo.UpdateStatus(ctx, exam.ID, exam.Status, to)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !ok {
		// Lost a race with a concurrent transition.
		return ErrInvalidTransition
	}
	exam.Status = to

	if exam.Type == model.ExamTypeOnlineQuiz {
		switch to {
		case model.ExamStatusLive:
			if err := s.warmQuizCache(ctx, exam, questions); err != nil {
				// The payload path falls back to Postgres, so a warm failure
				// is not fatal for the transition.
				s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("failed to warm quiz cache")
			}
		case model.ExamStatusCompleted:
			s.evictQuizCache(ctx, exam.ID)
		}
	}

	return nil
}

// warmQuizCache stores both the student-facing payload and the answer key
// in Redis.
func (s *ExamService) warmQuizCache(ctx context.Context, exam *model.Exam, questions []model.Question) error {
	payload := buildQuizPayload(exam, questions)
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuizPayloadKey(exam.ID.String()), raw, 0).Err(); err != nil {
		return fmt.Errorf("cache payload: %w", err)
	}

	key := config.CacheKey.QuizAnswerKey(exam.ID.String())
	fields := make(map[string]any, len(questions))
	for _, q := range questions {
		fields[q.ID.String()] = strconv.Itoa(q.CorrectOption)
	}
	if len(fields) > 0 {
		if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
			return fmt.Errorf("cache answer key: %w", err)
		}
	}
	return nil
}

func (s *ExamService) evictQuizCache(ctx context.Context, examID uuid.UUID) {
	keys := []string{
		config.CacheKey.QuizPayloadKey(examID.String()),
		config.CacheKey.QuizAnswerKey(examID.String()),
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("failed to evict quiz cache")
	}
}

// GetQuizPayload returns the student-facing quiz: Redis first, Postgres on a
// miss with a self-heal write back to the cache.
func (s *ExamService) GetQuizPayload(ctx context.Context, exam *model.Exam) (*model.QuizPayload, error) {
	if exam.Type != model.ExamTypeOnlineQuiz {
		return nil, ErrNotAnOnlineQuiz
	}

	key := config.CacheKey.QuizPayloadKey(exam.ID.String())
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.QuizPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err == nil {
			return payload, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("quiz payload cache read failed")
	}

	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	payload := buildQuizPayload(exam, questions)

	if raw, err := json.Marshal(payload); err == nil {
		_ = s.rdb.Set(ctx, key, raw, 0).Err()
	}
	return payload, nil
}

// Questions returns the full question set including correct answers.
// Admin and scoring use only.
func (s *ExamService) Questions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByExam(ctx, examID)
}

// Delete removes an exam with its questions and submissions.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID) error {
	s.evictQuizCache(ctx, examID)
	return s.examRepo.Delete(ctx, examID)
}

func buildQuizPayload(exam *model.Exam, questions []model.Question) *model.QuizPayload {
	payload := &model.QuizPayload{
		ExamID:   exam.ID,
		Title:    exam.Title,
		Subject:  exam.Subject,
		Duration: exam.DurationMinutes,
	}
	for _, q := range questions {
		payload.Questions = append(payload.Questions, model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			Options:  q.Options,
			Marks:    q.Marks,
			Position: q.Position,
		})
	}
	return payload
}
