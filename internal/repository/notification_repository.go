package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// NotificationRepository handles notification data access.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO notifications (institution_code, title, message, target_batch, sender_name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		n.InstitutionCode, n.Title, n.Message, n.TargetBatch, n.SenderName,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListForBatch retrieves notifications visible to one batch: batch-targeted
// rows plus institution-wide ones (NULL target), newest first.
func (r *NotificationRepository) ListForBatch(ctx context.Context, institutionCode, batch string, limit int) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, title, message, target_batch, sender_name, created_at
		 FROM notifications
		 WHERE institution_code = $1 AND (target_batch IS NULL OR target_batch = $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		institutionCode, batch, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// ListByInstitution retrieves all notifications of an institution, newest first.
func (r *NotificationRepository) ListByInstitution(ctx context.Context, institutionCode string, limit int) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, title, message, target_batch, sender_name, created_at
		 FROM notifications
		 WHERE institution_code = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		institutionCode, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	return err
}

func scanNotifications(rows pgx.Rows) ([]model.Notification, error) {
	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.InstitutionCode, &n.Title, &n.Message,
			&n.TargetBatch, &n.SenderName, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
