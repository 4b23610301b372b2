package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

// DeadlineWorker periodically sweeps live quizzes for attempts whose clock
// ran out without a submit (closed laptop, dead connection) and finalizes
// them server-side with whatever was autosaved.
type DeadlineWorker struct {
	examRepo       *repository.ExamRepository
	submissionRepo *repository.SubmissionRepository
	rdb            *redis.Client
	interval       time.Duration
	grace          time.Duration
	log            zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(
	examRepo *repository.ExamRepository,
	submissionRepo *repository.SubmissionRepository,
	rdb *redis.Client,
	interval, grace time.Duration,
	log zerolog.Logger,
) *DeadlineWorker {
	return &DeadlineWorker{
		examRepo:       examRepo,
		submissionRepo: submissionRepo,
		rdb:            rdb,
		interval:       interval,
		grace:          grace,
		log:            log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	exams, err := w.examRepo.ListLiveQuizzes(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("list live quizzes failed")
		return
	}

	now := time.Now()
	forced := 0

	for _, exam := range exams {
		subs, err := w.submissionRepo.ListInProgressByExam(ctx, exam.ID)
		if err != nil {
			w.log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("list submissions failed")
			continue
		}

		for _, sub := range subs {
			if !service.IsLate(sub.StartedAt, exam.DurationMinutes, w.grace, now) {
				continue
			}
			if err := w.forceFinalize(ctx, &exam, &sub, now); err != nil {
				w.log.Error().Err(err).
					Str("submission_id", sub.ID.String()).
					Msg("force finalize failed")
				continue
			}
			forced++
		}
	}

	if forced > 0 {
		w.log.Info().Int("count", forced).Msg("Force-finalized overdue attempts")
	}
}

// forceFinalize submits an abandoned attempt with its last autosaved answers
// and hands it to the score sync worker. The guarded UPDATE makes the sweep
// lose gracefully against a student submitting at the same moment.
func (w *DeadlineWorker) forceFinalize(ctx context.Context, exam *model.Exam, sub *model.Submission, now time.Time) error {
	answers := sub.Answers

	// The Redis hash may be fresher than the persisted map while the autosave
	// queue is still draining.
	key := config.CacheKey.StudentAnswersKey(exam.ID.String(), sub.StudentID)
	if fields, err := w.rdb.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		answers = make(map[string]int, len(fields))
		for qid, raw := range fields {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			answers[qid] = idx
		}
	}

	ok, err := w.submissionRepo.Finalize(ctx, sub.ID, answers, true, now)
	if err != nil {
		return err
	}
	if !ok {
		// The student's own submit won the race.
		return nil
	}

	job, err := json.Marshal(scorePayload{
		SubmissionID: sub.ID,
		ExamID:       exam.ID,
		StudentID:    sub.StudentID,
	})
	if err != nil {
		return err
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, job).Err(); err != nil {
		return err
	}

	// The live answer hash is no longer needed.
	_ = w.rdb.Del(ctx, config.CacheKey.StudentAnswersKey(exam.ID.String(), sub.StudentID)).Err()

	w.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(exam.ID.String()), "submitted")
	return nil
}
