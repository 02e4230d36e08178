package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/samber/lo"

	"mentei-messaging/internal/apperror"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/observability"
	"mentei-messaging/internal/relay"
	"mentei-messaging/internal/repositories"
	"mentei-messaging/internal/room"
	"mentei-messaging/internal/scoring"
)

// MessageRouter accepts send requests, validates them, persists through the
// gateway and fans the message out to the relevant rooms. Persistence
// failures surface to the caller; fan-out after a persisted message is
// best-effort and never rolls the message back.
type MessageRouter struct {
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	scores        repositories.ScoreRepository
	relay         relay.Relay

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewMessageRouter builds a MessageRouter.
func NewMessageRouter(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	notifications repositories.NotificationRepository,
	scores repositories.ScoreRepository,
	rel relay.Relay,
) *MessageRouter {
	return &MessageRouter{
		messages:      messages,
		users:         users,
		notifications: notifications,
		scores:        scores,
		relay:         rel,
		roomLocks:     make(map[string]*sync.Mutex),
	}
}

// roomLock returns the mutex serializing sends into one room. Within a room,
// delivery order must equal commit order, so persist and fan-out run as one
// critical section per room.
func (r *MessageRouter) roomLock(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		r.roomLocks[roomID] = lock
	}
	return lock
}

// SendGlobal validates and persists a global-room message, then broadcasts
// message:receive to every global subscriber.
func (r *MessageRouter) SendGlobal(ctx context.Context, senderID int, content string) (models.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.MessageView{}, apperror.ValidationFailed("content", "message content is empty")
	}

	sender, err := r.users.GetUser(ctx, senderID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.MessageView{}, apperror.NotFound("user", senderID)
		}
		return models.MessageView{}, apperror.TransientStorage("load sender", err)
	}
	if !sender.IsActive {
		return models.MessageView{}, apperror.Forbidden("sender account is inactive")
	}

	lock := r.roomLock(room.Global)
	lock.Lock()
	defer lock.Unlock()

	msg, err := r.messages.CreateGlobalMessage(ctx, senderID, content)
	if err != nil {
		return models.MessageView{}, apperror.TransientStorage("store message", err)
	}

	view := r.decorate(ctx, msg, sender)
	if err := r.relay.Publish(ctx, room.Global, models.EventMessageReceive, view); err != nil {
		log.Printf("global fan-out failed message=%d: %v", msg.ID, err)
	}
	observability.IncMessageSent("global")
	return view, nil
}

// SendPrivate validates and persists a private message, creates the
// receiver's notification and fans out to the pair room plus the receiver's
// personal stream.
func (r *MessageRouter) SendPrivate(ctx context.Context, senderID, receiverID int, content string) (models.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.MessageView{}, apperror.ValidationFailed("content", "message content is empty")
	}
	if senderID == receiverID {
		return models.MessageView{}, apperror.ValidationFailed("receiver_id", "cannot message yourself")
	}

	sender, err := r.users.GetUser(ctx, senderID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.MessageView{}, apperror.NotFound("user", senderID)
		}
		return models.MessageView{}, apperror.TransientStorage("load sender", err)
	}
	if !sender.IsActive {
		return models.MessageView{}, apperror.Forbidden("sender account is inactive")
	}

	receiver, err := r.users.GetUser(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.MessageView{}, apperror.NotFound("user", receiverID)
		}
		return models.MessageView{}, apperror.TransientStorage("load receiver", err)
	}
	if !receiver.IsActive {
		return models.MessageView{}, apperror.Forbidden("receiver cannot accept messages")
	}

	pairRoom := room.Canonical(senderID, receiverID)
	lock := r.roomLock(pairRoom)
	lock.Lock()
	defer lock.Unlock()

	msg, err := r.messages.CreatePrivateMessage(ctx, senderID, receiverID, content)
	if err != nil {
		return models.MessageView{}, apperror.TransientStorage("store message", err)
	}

	view := r.decorate(ctx, msg, sender)

	notification := models.Notification{
		Type:      models.NotificationMessage,
		Content:   r.notificationText(view),
		UserID:    receiverID,
		SenderID:  &msg.SenderID,
		RelatedID: &msg.ID,
	}
	stored, insertErr := r.notifications.Insert(ctx, notification)
	if insertErr != nil {
		log.Printf("notification insert failed message=%d: %v", msg.ID, insertErr)
	}

	if err := r.relay.Publish(ctx, pairRoom, models.EventMessageReceive, view); err != nil {
		log.Printf("private fan-out failed message=%d room=%s: %v", msg.ID, pairRoom, err)
	}
	if insertErr == nil {
		if err := r.relay.Publish(ctx, room.User(receiverID), models.EventNotificationNew, stored); err != nil {
			log.Printf("notification fan-out failed message=%d: %v", msg.ID, err)
		}
	}
	observability.IncMessageSent("private")
	return view, nil
}

// GlobalHistory returns global-room messages with sender fields attached.
func (r *MessageRouter) GlobalHistory(ctx context.Context, limit, offset int) ([]models.MessageView, error) {
	msgs, err := r.messages.GlobalMessages(ctx, limit, offset)
	if err != nil {
		return nil, apperror.TransientStorage("load global history", err)
	}
	return r.decorateAll(ctx, msgs), nil
}

// ConversationHistory returns the private history between two users.
func (r *MessageRouter) ConversationHistory(ctx context.Context, userA, userB, limit, offset int) ([]models.MessageView, error) {
	msgs, err := r.messages.ConversationMessages(ctx, userA, userB, limit, offset)
	if err != nil {
		return nil, apperror.TransientStorage("load conversation", err)
	}
	return r.decorateAll(ctx, msgs), nil
}

// RelayTyping forwards a typing indicator to its room. Never persisted.
func (r *MessageRouter) RelayTyping(ctx context.Context, p models.TypingPayload) {
	if err := r.relay.Publish(ctx, p.RoomID, models.EventUserTyping, p); err != nil {
		log.Printf("typing relay failed room=%s: %v", p.RoomID, err)
	}
}

// decorate attaches the sender's display fields to a persisted message.
// Score lookup is best-effort; a missing title never blocks delivery.
func (r *MessageRouter) decorate(ctx context.Context, msg models.Message, sender models.User) models.MessageView {
	view := models.MessageView{Message: msg, SenderUsername: sender.Username}
	if total, err := r.scores.TotalScore(ctx, sender.ID); err == nil {
		view.SenderTitle = scoring.CalculateLevel(total).Title
	}
	return view
}

func (r *MessageRouter) decorateAll(ctx context.Context, msgs []models.Message) []models.MessageView {
	senderIDs := lo.Uniq(lo.Map(msgs, func(m models.Message, _ int) int {
		return m.SenderID
	}))

	usernameByID := map[int]string{}
	if users, err := r.users.BulkUsers(ctx, senderIDs); err == nil {
		for _, u := range users {
			usernameByID[u.ID] = u.Username
		}
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, models.MessageView{Message: m, SenderUsername: usernameByID[m.SenderID]})
	}
	return views
}

func (r *MessageRouter) notificationText(view models.MessageView) string {
	if view.SenderTitle != "" {
		return fmt.Sprintf("Nova mensagem de %s (%s)", view.SenderUsername, view.SenderTitle)
	}
	return fmt.Sprintf("Nova mensagem de %s", view.SenderUsername)
}
