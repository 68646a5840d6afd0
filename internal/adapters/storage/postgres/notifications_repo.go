package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-grooming-scheduler/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

const notificationColumns = `
	id, scheduling_id, event, recipient, channel, content,
	status, retry_count,
	sent_at, delivered_at, failed_at, failure_reason,
	created_at, updated_at
`

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		n.ID,
		n.SchedulingID,
		n.Event,
		n.Recipient,
		string(n.Channel),
		n.Content,
		string(n.Status),
		n.RetryCount,
		n.SentAt,
		n.DeliveredAt,
		n.FailedAt,
		nullIfEmpty(n.FailureReason),
		n.CreatedAt,
		n.UpdatedAt,
	)
	return err
}

func (r *NotificationsRepo) Save(ctx context.Context, n notifications.Notification) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET
			content = $2,
			status = $3,
			retry_count = $4,
			sent_at = $5,
			delivered_at = $6,
			failed_at = $7,
			failure_reason = $8,
			updated_at = $9
		WHERE id = $1
	`,
		n.ID,
		n.Content,
		string(n.Status),
		n.RetryCount,
		n.SentAt,
		n.DeliveredAt,
		n.FailedAt,
		nullIfEmpty(n.FailureReason),
		n.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return notifications.Notification{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1
	`, id)

	n, err := scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return notifications.Notification{}, ErrNotFound
		}
		return notifications.Notification{}, err
	}
	return n, nil
}

func (r *NotificationsRepo) FindPending(ctx context.Context, limit int) ([]notifications.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`, string(notifications.StatusPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *NotificationsRepo) FindByScheduling(ctx context.Context, schedulingID string) ([]notifications.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE scheduling_id = $1
		ORDER BY created_at
	`, schedulingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *NotificationsRepo) HasRecentAttempt(ctx context.Context, event, recipient string, since time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM notifications
		WHERE event = $1
		  AND recipient = $2
		  AND status <> $3
		  AND created_at >= $4
	`, event, recipient, string(notifications.StatusFailed), since).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanNotification(row rowScanner) (notifications.Notification, error) {
	var (
		n       notifications.Notification
		channel string
		status  string
		reason  sql.NullString
	)
	if err := row.Scan(
		&n.ID,
		&n.SchedulingID,
		&n.Event,
		&n.Recipient,
		&channel,
		&n.Content,
		&status,
		&n.RetryCount,
		&n.SentAt,
		&n.DeliveredAt,
		&n.FailedAt,
		&reason,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return notifications.Notification{}, err
	}

	n.Channel = notifications.Channel(channel)
	n.Status = notifications.Status(status)
	n.FailureReason = reason.String
	return n, nil
}

func collectNotifications(rows *sql.Rows) ([]notifications.Notification, error) {
	out := make([]notifications.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
