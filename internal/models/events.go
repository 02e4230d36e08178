package models

import "encoding/json"

// Client-facing websocket event names. The wire contract is shared with the
// web client and must stay stable.
const (
	EventMessageSend     = "message:send"
	EventMessageReceive  = "message:receive"
	EventUserOnline      = "user:online"
	EventUserTyping      = "user:typing"
	EventMessagesRead    = "messages:read"
	EventUserStatus      = "user:status"
	EventNotificationNew = "notification:new"
)

// Envelope wraps every event crossing a websocket or relay boundary.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SendPayload is the inbound body of a message:send event.
type SendPayload struct {
	RoomID     string `json:"room_id"`
	Content    string `json:"content"`
	ReceiverID *int   `json:"receiver_id,omitempty"`
	IsGlobal   bool   `json:"is_global"`
}

// TypingPayload is relayed verbatim, never persisted.
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	UserID   int    `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// ReadPayload marks a conversation read up to now.
type ReadPayload struct {
	RoomID string `json:"room_id"`
	UserID int    `json:"user_id"`
}

// StatusPayload is the outbound body of a user:status event.
type StatusPayload struct {
	UserID int    `json:"user_id"`
	Status string `json:"status"`
}

// ReadBroadcast is the outbound body of a messages:read event.
type ReadBroadcast struct {
	RoomID   string `json:"room_id"`
	ReaderID int    `json:"reader_id"`
	SenderID int    `json:"sender_id"`
	Count    int64  `json:"count"`
}
