package models

import "time"

// User is a projection of the external account record. Identity fields are
// read-only here; the messaging core only owns the presence flags.
type User struct {
	ID       int        `db:"id" json:"id"`
	Username string     `db:"username" json:"username"`
	IsPro    bool       `db:"is_pro" json:"is_pro"`
	IsActive bool       `db:"is_active" json:"is_active"`
	IsOnline bool       `db:"is_online" json:"is_online"`
	LastSeen *time.Time `db:"last_seen" json:"last_seen,omitempty"`
}

// PresenceStatus is the outbound view of a user's presence.
type PresenceStatus struct {
	UserID   int        `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
