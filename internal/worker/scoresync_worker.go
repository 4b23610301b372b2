package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
	"github.com/edumatrix/edumatrix-backend/internal/scoring"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ScoreSyncWorker consumes the persist-scores queue, grades finalized
// submissions against the exam answer key, and bulk-updates their scores.
type ScoreSyncWorker struct {
	rdb            *redis.Client
	submissionRepo *repository.SubmissionRepository
	questionRepo   *repository.QuestionRepository
	log            zerolog.Logger
}

// NewScoreSyncWorker creates a new ScoreSyncWorker.
func NewScoreSyncWorker(
	rdb *redis.Client,
	submissionRepo *repository.SubmissionRepository,
	questionRepo *repository.QuestionRepository,
	log zerolog.Logger,
) *ScoreSyncWorker {
	return &ScoreSyncWorker{
		rdb:            rdb,
		submissionRepo: submissionRepo,
		questionRepo:   questionRepo,
		log:            log.With().Str("component", "scoresync_worker").Logger(),
	}
}

type scorePayload struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	ExamID       uuid.UUID `json:"exam_id"`
	StudentID    int       `json:"student_id"`
}

// Start runs the batching consume loop. Jobs accumulate until the batch is
// full or ScoreBatchTimeout has passed, then flush in one UPDATE. Call in a
// goroutine.
func (w *ScoreSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("score sync worker running")

	batch := make([]*scorePayload, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) >= ScoreBatchSize || (len(batch) > 0 && time.Since(lastFlush) >= ScoreBatchTimeout) {
			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		if ctx.Err() != nil {
			w.log.Info().Int("pending", len(batch)).Msg("score sync worker stopping, flushing batch")
			w.flush(context.Background(), batch)
			return
		}

		var p scorePayload
		if popJSON(ctx, w.rdb, config.WorkerKey.PersistScoresQueue, ScorePollTimeout, &p, w.log) {
			batch = append(batch, &p)
		}
	}
}

func (w *ScoreSyncWorker) flush(ctx context.Context, batch []*scorePayload) {
	if len(batch) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(batch))
	scores := make([]int, 0, len(batch))

	// Question sets repeat within a batch when many students submit the same
	// quiz at once, so cache them per exam.
	questionCache := make(map[uuid.UUID][]model.Question)

	for _, p := range batch {
		score, err := w.grade(ctx, p, questionCache)
		if err != nil {
			w.log.Error().Err(err).
				Str("submission_id", p.SubmissionID.String()).
				Msg("grading failed, requeueing")
			requeue(ctx, w.rdb, config.WorkerKey.PersistScoresQueue, p)
			continue
		}
		ids = append(ids, p.SubmissionID)
		scores = append(scores, score)
	}

	if len(ids) == 0 {
		return
	}

	if err := w.submissionRepo.BatchUpdateScores(ctx, ids, scores); err != nil {
		w.log.Warn().Err(err).Msg("bulk score update failed, using fallback")

		for i, id := range ids {
			if err := w.submissionRepo.UpdateScore(ctx, id, scores[i]); err != nil {
				w.log.Error().Err(err).
					Str("submission_id", id.String()).
					Msg("single score update failed")
			}
		}
	}
}

// grade computes the score for one finalized submission.
func (w *ScoreSyncWorker) grade(ctx context.Context, p *scorePayload, questionCache map[uuid.UUID][]model.Question) (int, error) {
	questions, ok := questionCache[p.ExamID]
	if !ok {
		var err error
		questions, err = w.questionRepo.ListByExam(ctx, p.ExamID)
		if err != nil {
			return 0, err
		}
		questionCache[p.ExamID] = questions
	}

	sub, err := w.submissionRepo.GetByID(ctx, p.SubmissionID)
	if err != nil {
		return 0, err
	}

	score := scoring.Score(questions, sub.Answers)
	w.log.Debug().
		Str("submission_id", p.SubmissionID.String()).
		Int("score", score).
		Int("max", scoring.MaxScore(questions)).
		Msg("Graded submission")
	return score, nil
}
