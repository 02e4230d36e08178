package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"mentei-messaging/internal/models"
)

// NotificationRepository persists append-only notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForUser(ctx context.Context, userID int, limit, offset int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `id, type, content, user_id, sender_id, related_id, is_read, created_at`

// Insert stores a notification and returns the persisted row.
func (r *NotificationRepo) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	var out models.Notification
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (type, content, user_id, sender_id, related_id)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+notificationColumns,
		n.Type, n.Content, n.UserID, n.SenderID, n.RelatedID).StructScan(&out)
	return out, err
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int, limit, offset int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
        WHERE user_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, query, userID, limit, offset)
	return list, err
}

// UnreadCount counts unread notifications for the user.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND NOT is_read`, userID)
	return count, err
}

// MarkAllRead flips every unread notification for the user. Idempotent.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id=$1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
