package models

import "time"

// Notification types emitted by the messaging core.
const (
	NotificationMessage = "message"
	NotificationLevelUp = "level_up"
)

// Notification is an append-only record addressed to a single user.
// IsRead only ever flips false to true.
type Notification struct {
	ID        int       `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Content   string    `db:"content" json:"content"`
	UserID    int       `db:"user_id" json:"user_id"`
	SenderID  *int      `db:"sender_id" json:"sender_id,omitempty"`
	RelatedID *int      `db:"related_id" json:"related_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
