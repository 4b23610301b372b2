package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/fallback"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
	"github.com/edumatrix/edumatrix-backend/internal/scoring"
)

// Submission lifecycle errors.
var (
	ErrExamNotLive      = errors.New("exam is not live")
	ErrAlreadySubmitted = errors.New("submission already finalized")
	ErrNotParticipant   = errors.New("submission belongs to another student")
	ErrInvalidQuestion  = errors.New("answer references an unknown question or option")
)

// AutosaveJob is the queue payload consumed by the autosave worker.
type AutosaveJob struct {
	SubmissionID uuid.UUID      `json:"submission_id"`
	Answers      map[string]int `json:"answers"`
}

// ScoringJob is the queue payload consumed by the score sync worker.
type ScoringJob struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	ExamID       uuid.UUID `json:"exam_id"`
	StudentID    int       `json:"student_id"`
}

// SubmissionService implements the timed quiz attempt lifecycle:
// idempotent start, last-writer-wins progress saves, and a guarded finalize
// with server-side deadline enforcement.
type SubmissionService struct {
	submissionRepo *repository.SubmissionRepository
	questionRepo   *repository.QuestionRepository
	monitorRepo    *repository.MonitorRepository
	fallbackStore  *fallback.Store
	rdb            *redis.Client
	grace          time.Duration
	log            zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	submissionRepo *repository.SubmissionRepository,
	questionRepo *repository.QuestionRepository,
	monitorRepo *repository.MonitorRepository,
	fallbackStore *fallback.Store,
	rdb *redis.Client,
	grace time.Duration,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		questionRepo:   questionRepo,
		monitorRepo:    monitorRepo,
		fallbackStore:  fallbackStore,
		rdb:            rdb,
		grace:          grace,
		log:            log.With().Str("component", "submission_service").Logger(),
	}
}

// Deadline returns the instant an attempt's clock runs out.
func Deadline(startedAt time.Time, durationMinutes int) time.Time {
	return startedAt.Add(time.Duration(durationMinutes) * time.Minute)
}

// RemainingSeconds returns how much attempt time is left at now, clamped at zero.
// Resuming never resets the clock: the deadline is fixed by the first start.
func RemainingSeconds(startedAt time.Time, durationMinutes int, now time.Time) float64 {
	remaining := Deadline(startedAt, durationMinutes).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining.Seconds()
}

// IsLate reports whether a finalize at now falls outside the deadline plus
// the configured grace window.
func IsLate(startedAt time.Time, durationMinutes int, grace time.Duration, now time.Time) bool {
	return now.After(Deadline(startedAt, durationMinutes).Add(grace))
}

// Start begins (or resumes) a student's attempt at a live quiz. Exactly one
// submission row exists per (exam, student); concurrent starts collapse onto
// it. A finished attempt cannot be restarted.
func (s *SubmissionService) Start(ctx context.Context, exam *model.Exam, studentID int) (*model.SubmissionState, error) {
	if exam.Type != model.ExamTypeOnlineQuiz {
		return nil, ErrNotAnOnlineQuiz
	}
	if exam.Status != model.ExamStatusLive {
		return nil, ErrExamNotLive
	}

	sub := &model.Submission{ExamID: exam.ID, StudentID: studentID}
	err := s.submissionRepo.Create(ctx, sub)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row already exists: this is a resume or a concurrent start.
			existing, fetchErr := s.submissionRepo.GetByExamAndStudent(ctx, exam.ID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("fetch existing submission: %w", fetchErr)
			}
			sub = existing
		} else {
			return nil, fmt.Errorf("create submission: %w", err)
		}
	} else {
		sub.Status = model.SubmissionStatusInProgress
	}

	if sub.Status == model.SubmissionStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	state, err := s.buildState(ctx, exam, sub)
	if err != nil {
		return nil, err
	}

	if err := s.monitorRepo.PublishUpdate(ctx, exam.ID, "started"); err != nil {
		s.log.Debug().Err(err).Msg("monitor publish failed")
	}
	return state, nil
}

// State returns the resume view of a student's attempt: the freshest answer
// map and the seconds left on the fixed clock.
func (s *SubmissionService) State(ctx context.Context, exam *model.Exam, studentID int) (*model.SubmissionState, error) {
	sub, err := s.submissionRepo.GetByExamAndStudent(ctx, exam.ID, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildState(ctx, exam, sub)
}

func (s *SubmissionService) buildState(ctx context.Context, exam *model.Exam, sub *model.Submission) (*model.SubmissionState, error) {
	answers, err := s.liveAnswers(ctx, exam.ID, sub)
	if err != nil {
		return nil, err
	}

	return &model.SubmissionState{
		SubmissionID:     sub.ID,
		ExamID:           exam.ID,
		Status:           sub.Status,
		Answers:          answers,
		RemainingSeconds: RemainingSeconds(sub.StartedAt, exam.DurationMinutes, time.Now()),
	}, nil
}

// liveAnswers returns the freshest answer map for an attempt. In-progress
// attempts prefer the Redis answer hash over the persisted map, since the
// autosave queue may still be draining. Finished attempts never consult the
// hash: an autosave racing the finalize can re-create it after eviction, and
// those answers are not part of the finalized record.
func (s *SubmissionService) liveAnswers(ctx context.Context, examID uuid.UUID, sub *model.Submission) (map[string]int, error) {
	var cached map[string]int
	if sub.Status != model.SubmissionStatusSubmitted {
		key := config.CacheKey.StudentAnswersKey(examID.String(), sub.StudentID)
		fields, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			s.log.Warn().Err(err).Msg("answers cache read failed")
			fields = nil
		}
		cached = make(map[string]int, len(fields))
		for qid, raw := range fields {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			cached[qid] = idx
		}
	}
	return freshestAnswers(sub.Status, sub.Answers, cached), nil
}

// freshestAnswers picks the answer map clients should see. The persisted map
// is authoritative once the attempt is SUBMITTED; before that the cached hash
// wins whenever it has entries.
func freshestAnswers(status model.SubmissionStatus, persisted, cached map[string]int) map[string]int {
	if status == model.SubmissionStatusSubmitted || len(cached) == 0 {
		if persisted == nil {
			return map[string]int{}
		}
		return persisted
	}
	return cached
}

// SaveProgress overwrites the full answer map of an in-progress attempt
// (last writer wins). The map lands in Redis immediately and is persisted to
// Postgres asynchronously by the autosave worker.
func (s *SubmissionService) SaveProgress(ctx context.Context, exam *model.Exam, sub *model.Submission, answers map[string]int) error {
	if sub.Status != model.SubmissionStatusInProgress {
		return ErrAlreadySubmitted
	}

	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if bad := scoring.ValidateAnswers(questions, answers); bad != "" {
		return fmt.Errorf("%w: %s", ErrInvalidQuestion, bad)
	}

	// Full-map overwrite: drop the hash, then write the new map.
	key := config.CacheKey.StudentAnswersKey(exam.ID.String(), sub.StudentID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(answers) > 0 {
		fields := make(map[string]any, len(answers))
		for qid, idx := range answers {
			fields[qid] = strconv.Itoa(idx)
		}
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache answers: %w", err)
	}

	job, err := json.Marshal(AutosaveJob{SubmissionID: sub.ID, Answers: answers})
	if err != nil {
		return fmt.Errorf("marshal autosave job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, job).Err(); err != nil {
		return fmt.Errorf("enqueue autosave: %w", err)
	}

	if err := s.monitorRepo.PublishUpdate(ctx, exam.ID, "progress"); err != nil {
		s.log.Debug().Err(err).Msg("monitor publish failed")
	}
	return nil
}

// Finalize ends an attempt exactly once. The final answer map is the request
// body when present, otherwise the last autosave. Attempts finalized after
// the deadline plus grace are accepted but flagged late. Scoring runs
// asynchronously in the score sync worker.
func (s *SubmissionService) Finalize(ctx context.Context, exam *model.Exam, sub *model.Submission, answers map[string]int) (*model.Submission, error) {
	if sub.Status != model.SubmissionStatusInProgress {
		return nil, ErrAlreadySubmitted
	}

	if answers == nil {
		var err error
		answers, err = s.liveAnswers(ctx, exam.ID, sub)
		if err != nil {
			return nil, err
		}
	}

	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if bad := scoring.ValidateAnswers(questions, answers); bad != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuestion, bad)
	}

	now := time.Now()
	late := IsLate(sub.StartedAt, exam.DurationMinutes, s.grace, now)

	ok, err := s.submissionRepo.Finalize(ctx, sub.ID, answers, late, now)
	if err != nil {
		// Primary store is down: mirror the finished attempt locally so it is
		// not lost, then surface the failure.
		s.mirrorToFallback(ctx, exam, sub, answers, late)
		return nil, fmt.Errorf("finalize submission: %w", err)
	}
	if !ok {
		return nil, ErrAlreadySubmitted
	}

	sub.Answers = answers
	sub.Status = model.SubmissionStatusSubmitted
	sub.Late = late
	sub.SubmittedAt = &now

	job, err := json.Marshal(ScoringJob{SubmissionID: sub.ID, ExamID: exam.ID, StudentID: sub.StudentID})
	if err == nil {
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, job).Err(); err != nil {
			s.log.Error().Err(err).Str("submission_id", sub.ID.String()).Msg("enqueue scoring job failed")
		}
	}

	// Evict the live answer hash; the persisted row is authoritative now.
	_ = s.rdb.Del(ctx, config.CacheKey.StudentAnswersKey(exam.ID.String(), sub.StudentID)).Err()

	if err := s.monitorRepo.PublishUpdate(ctx, exam.ID, "submitted"); err != nil {
		s.log.Debug().Err(err).Msg("monitor publish failed")
	}
	return sub, nil
}

func (s *SubmissionService) mirrorToFallback(ctx context.Context, exam *model.Exam, sub *model.Submission, answers map[string]int, late bool) {
	if s.fallbackStore == nil {
		return
	}

	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	score := 0
	if err == nil {
		score = scoring.Score(questions, answers)
	}

	mirrored, _, err := s.fallbackStore.Start(ctx, exam.ID, sub.StudentID, sub.StudentName)
	if err != nil {
		s.log.Error().Err(err).Str("submission_id", sub.ID.String()).Msg("fallback mirror failed")
		return
	}
	if err := s.fallbackStore.Finalize(ctx, mirrored.ID, answers, score, late); err != nil {
		s.log.Error().Err(err).Str("submission_id", sub.ID.String()).Msg("fallback finalize failed")
		return
	}
	s.log.Warn().
		Str("submission_id", sub.ID.String()).
		Str("exam_id", exam.ID.String()).
		Int("student_id", sub.StudentID).
		Msg("submission mirrored to local fallback store, reconcile manually")
}

// GetByID fetches one submission.
func (s *SubmissionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	return s.submissionRepo.GetByID(ctx, id)
}

// GetByExamAndStudent fetches a student's attempt at an exam.
func (s *SubmissionService) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	return s.submissionRepo.GetByExamAndStudent(ctx, examID, studentID)
}

// ListByExam lists an exam's submissions for the admin results view.
func (s *SubmissionService) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]model.Submission, int64, error) {
	return s.submissionRepo.ListByExam(ctx, examID, page, perPage)
}
