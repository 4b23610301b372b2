package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// MonitorRow is one student's live state in the monitoring view.
type MonitorRow struct {
	StudentID     int                    `json:"student_id"`
	Name          string                 `json:"name"`
	EnrollmentID  string                 `json:"enrollment_id"`
	Status        model.SubmissionStatus `json:"status"`
	AnsweredCount int                    `json:"answered_count"`
	Score         *int                   `json:"score,omitempty"`
	Late          bool                   `json:"late"`
	StartedAt     time.Time              `json:"started_at"`
	LastActive    time.Time              `json:"last_active"`
}

// MonitorRepository provides data access for live quiz monitoring. It combines
// PostgreSQL (submission state) with Redis (cached answer maps).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// Snapshot builds the full monitoring view for one exam: every submission
// joined with student identity, plus live answered counts from the Redis
// answer hashes where present.
func (r *MonitorRepository) Snapshot(ctx context.Context, examID uuid.UUID) ([]MonitorRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT st.id, st.name, st.enrollment_id, sub.status, sub.score, sub.late,
		        sub.started_at, sub.last_active,
		        (SELECT COUNT(*) FROM jsonb_object_keys(sub.answers))
		 FROM submissions sub
		 JOIN students st ON sub.student_id = st.id
		 WHERE sub.exam_id = $1
		 ORDER BY st.name ASC`,
		examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonitorRow
	for rows.Next() {
		var m MonitorRow
		var score int
		if err := rows.Scan(&m.StudentID, &m.Name, &m.EnrollmentID, &m.Status, &score,
			&m.Late, &m.StartedAt, &m.LastActive, &m.AnsweredCount); err != nil {
			return nil, err
		}
		if m.Status == model.SubmissionStatusSubmitted {
			m.Score = &score
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Redis carries fresher counts than the persisted answer maps while the
	// autosave queue is still draining.
	for i := range out {
		key := config.CacheKey.StudentAnswersKey(examID.String(), out[i].StudentID)
		n, err := r.rdb.HLen(ctx, key).Result()
		if err == nil && int(n) > out[i].AnsweredCount {
			out[i].AnsweredCount = int(n)
		}
	}
	return out, nil
}

// PublishUpdate notifies SSE monitors of activity on an exam channel.
func (r *MonitorRepository) PublishUpdate(ctx context.Context, examID uuid.UUID, event string) error {
	return r.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(examID.String()), event).Err()
}
