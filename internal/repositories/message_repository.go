package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mentei-messaging/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository is the persistence gateway for chat messages.
type MessageRepository interface {
	CreateGlobalMessage(ctx context.Context, senderID int, content string) (models.Message, error)
	CreatePrivateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error)
	GlobalMessages(ctx context.Context, limit, offset int) ([]models.Message, error)
	ConversationMessages(ctx context.Context, userA, userB int, limit, offset int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID int) (int64, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	UnreadBySender(ctx context.Context, userID int) (map[int]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, receiver_id, is_global, content, created_at, read_at`

// CreateGlobalMessage stores a message addressed to the global room.
func (r *MessageRepo) CreateGlobalMessage(ctx context.Context, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, is_global, content) VALUES ($1, TRUE, $2) RETURNING `+messageColumns,
		senderID, content).StructScan(&msg)
	return msg, err
}

// CreatePrivateMessage stores a message addressed to a single receiver.
func (r *MessageRepo) CreatePrivateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, is_global, content) VALUES ($1, $2, FALSE, $3) RETURNING `+messageColumns,
		senderID, receiverID, content).StructScan(&msg)
	return msg, err
}

// GlobalMessages returns global-room messages in persistence order.
func (r *MessageRepo) GlobalMessages(ctx context.Context, limit, offset int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE is_global
        ORDER BY created_at ASC, id ASC
        LIMIT $1 OFFSET $2`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, limit, offset)
	return msgs, err
}

// ConversationMessages returns the private messages between two users in
// persistence order, regardless of direction.
func (r *MessageRepo) ConversationMessages(ctx context.Context, userA, userB int, limit, offset int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE NOT is_global
        AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
        ORDER BY created_at ASC, id ASC
        LIMIT $3 OFFSET $4`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userA, userB, limit, offset)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRead sets read_at for every unread private message from sender to
// receiver. A single conditional bulk update, so concurrent calls are safe
// and a repeated call affects zero rows.
func (r *MessageRepo) MarkRead(ctx context.Context, receiverID, senderID int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = NOW()
         WHERE receiver_id=$1 AND sender_id=$2 AND NOT is_global AND read_at IS NULL`,
		receiverID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount counts private messages addressed to the user with no read_at.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE receiver_id=$1 AND NOT is_global AND read_at IS NULL`,
		userID)
	return count, err
}

// UnreadBySender returns per-conversation unread counts for badge rendering.
func (r *MessageRepo) UnreadBySender(ctx context.Context, userID int) (map[int]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT sender_id, COUNT(*) AS unread FROM messages
         WHERE receiver_id=$1 AND NOT is_global AND read_at IS NULL
         GROUP BY sender_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[int]int{}
	for rows.Next() {
		var senderID, unread int
		if err := rows.Scan(&senderID, &unread); err != nil {
			return nil, err
		}
		result[senderID] = unread
	}
	return result, rows.Err()
}
