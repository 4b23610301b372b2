package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// AutosaveWorker consumes the persist-answers queue and writes answer maps to
// PostgreSQL. Saves are last-writer-wins full-map overwrites, so replaying a
// job is always safe.
type AutosaveWorker struct {
	submissionRepo *repository.SubmissionRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(submissionRepo *repository.SubmissionRepository, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		submissionRepo: submissionRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "autosave_worker").Logger(),
	}
}

type autosavePayload struct {
	SubmissionID uuid.UUID      `json:"submission_id"`
	Answers      map[string]int `json:"answers"`
}

// Start runs the consume loop until ctx is cancelled, then drains whatever
// is still queued so no autosave is lost across a shutdown. Call in a
// goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("autosave worker running")

	for ctx.Err() == nil {
		var p autosavePayload
		if !popJSON(ctx, w.rdb, config.WorkerKey.PersistAnswersQueue, time.Second, &p, w.log) {
			continue
		}
		w.handle(ctx, &p)
	}

	drained := w.drain(context.Background())
	w.log.Info().Int("drained", drained).Msg("autosave worker stopped")
}

func (w *AutosaveWorker) handle(ctx context.Context, p *autosavePayload) {
	err := w.persist(ctx, p)
	if err == nil {
		return
	}

	w.log.Error().Err(err).
		Str("submission_id", p.SubmissionID.String()).
		Msg("autosave write failed, requeueing")
	requeue(ctx, w.rdb, config.WorkerKey.PersistAnswersQueue, p)

	// Back off before polling again; the failure is usually Postgres-wide.
	time.Sleep(5 * time.Second)
}

// persist overwrites the stored answer map. The repository's status guard
// keeps a stale autosave from reviving answers on an already finalized
// attempt; a skipped row is not an error.
func (w *AutosaveWorker) persist(ctx context.Context, p *autosavePayload) error {
	saved, err := w.submissionRepo.SaveAnswers(ctx, p.SubmissionID, p.Answers)
	if err != nil {
		return err
	}
	if !saved {
		w.log.Debug().
			Str("submission_id", p.SubmissionID.String()).
			Msg("skipped autosave for finalized attempt")
	}
	return nil
}

// drain empties the queue synchronously. Jobs that still fail go back on the
// queue for the next process to pick up.
func (w *AutosaveWorker) drain(ctx context.Context) int {
	n := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			return n
		}

		var p autosavePayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			w.log.Error().Err(err).Msg("dropping malformed job during drain")
			continue
		}

		if err := w.persist(ctx, &p); err != nil {
			w.log.Error().Err(err).Msg("drain write failed, leaving job queued")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw)
			return n
		}
		n++
	}
}
