package models

import "time"

// Message is a chat message, either broadcast to the global room or
// addressed to a single receiver. Immutable once created except for ReadAt.
type Message struct {
	ID         int        `db:"id" json:"id"`
	SenderID   int        `db:"sender_id" json:"sender_id"`
	ReceiverID *int       `db:"receiver_id" json:"receiver_id,omitempty"`
	IsGlobal   bool       `db:"is_global" json:"is_global"`
	Content    string     `db:"content" json:"content"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
}

// MessageView is the API-facing shape with denormalized sender fields.
type MessageView struct {
	Message
	SenderUsername string `json:"sender_username,omitempty"`
	SenderTitle    string `json:"sender_title,omitempty"`
}
