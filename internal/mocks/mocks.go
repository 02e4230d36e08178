package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mentei-messaging/internal/auth"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/relay"
	"mentei-messaging/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateGlobalMessage(ctx context.Context, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CreatePrivateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GlobalMessages(ctx context.Context, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ConversationMessages(ctx context.Context, userA, userB, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, userA, userB, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, receiverID, senderID int) (int64, error) {
	args := m.Called(ctx, receiverID, senderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadBySender(ctx context.Context, userID int) (map[int]int, error) {
	args := m.Called(ctx, userID)
	var counts map[int]int
	if val := args.Get(0); val != nil {
		counts = val.(map[int]int)
	}
	return counts, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID int, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

func (m *UserRepositoryMock) ResetAllOnline(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *UserRepositoryMock) PrivatePeers(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var peers []int
	if val := args.Get(0); val != nil {
		peers = val.([]int)
	}
	return peers, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var out models.Notification
	if val := args.Get(0); val != nil {
		out = val.(models.Notification)
	}
	return out, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID int, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) UnreadCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type ScoreRepositoryMock struct {
	mock.Mock
}

func (m *ScoreRepositoryMock) AddPoints(ctx context.Context, userID int, points int) (int, error) {
	args := m.Called(ctx, userID, points)
	return args.Int(0), args.Error(1)
}

func (m *ScoreRepositoryMock) TotalScore(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type RelayMock struct {
	mock.Mock
}

func (m *RelayMock) Publish(ctx context.Context, roomID, event string, payload any) error {
	args := m.Called(ctx, roomID, event, payload)
	return args.Error(0)
}

func (m *RelayMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.ScoreRepository = (*ScoreRepositoryMock)(nil)
var _ relay.Relay = (*RelayMock)(nil)
var _ auth.Verifier = (*VerifierMock)(nil)
