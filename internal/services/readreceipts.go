package services

import (
	"context"
	"log"

	"mentei-messaging/internal/apperror"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/relay"
	"mentei-messaging/internal/repositories"
	"mentei-messaging/internal/room"
)

// ReadReceipts applies read state to private conversations and keeps unread
// counters consistent with it.
type ReadReceipts struct {
	messages repositories.MessageRepository
	relay    relay.Relay
}

// NewReadReceipts builds a ReadReceipts service.
func NewReadReceipts(messages repositories.MessageRepository, rel relay.Relay) *ReadReceipts {
	return &ReadReceipts{messages: messages, relay: rel}
}

// MarkRead stamps read_at on every unread message from sender to receiver.
// The update is a single conditional bulk write, so repeated and concurrent
// calls are safe; a second call in a row affects zero rows. When anything
// was read, messages:read is broadcast to the pair room.
func (s *ReadReceipts) MarkRead(ctx context.Context, receiverID, senderID int) (int64, error) {
	rows, err := s.messages.MarkRead(ctx, receiverID, senderID)
	if err != nil {
		return 0, apperror.TransientStorage("mark read", err)
	}
	if rows > 0 {
		pairRoom := room.Canonical(receiverID, senderID)
		broadcast := models.ReadBroadcast{
			RoomID:   pairRoom,
			ReaderID: receiverID,
			SenderID: senderID,
			Count:    rows,
		}
		if err := s.relay.Publish(ctx, pairRoom, models.EventMessagesRead, broadcast); err != nil {
			log.Printf("read-receipt fan-out failed room=%s: %v", pairRoom, err)
		}
	}
	return rows, nil
}

// UnreadCount counts private messages addressed to the user and not yet read.
func (s *ReadReceipts) UnreadCount(ctx context.Context, userID int) (int, error) {
	count, err := s.messages.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperror.TransientStorage("count unread", err)
	}
	return count, nil
}

// UnreadBySender returns per-conversation unread counts.
func (s *ReadReceipts) UnreadBySender(ctx context.Context, userID int) (map[int]int, error) {
	counts, err := s.messages.UnreadBySender(ctx, userID)
	if err != nil {
		return nil, apperror.TransientStorage("count unread by sender", err)
	}
	return counts, nil
}
