package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mentei-messaging/internal/apperror"
	"mentei-messaging/internal/mocks"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/repositories"
)

func newRouterFixture() (*MessageRouter, *mocks.MessageRepositoryMock, *mocks.UserRepositoryMock, *mocks.NotificationRepositoryMock, *mocks.ScoreRepositoryMock, *mocks.RelayMock) {
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	scores := new(mocks.ScoreRepositoryMock)
	rel := new(mocks.RelayMock)
	router := NewMessageRouter(messages, users, notifications, scores, rel)
	return router, messages, users, notifications, scores, rel
}

func TestSendGlobalSuccess(t *testing.T) {
	router, messages, users, _, scores, rel := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana", IsActive: true}, nil).Once()
	messages.On("CreateGlobalMessage", mock.Anything, 1, "oi").
		Return(models.Message{ID: 9, SenderID: 1, IsGlobal: true, Content: "oi"}, nil).Once()
	scores.On("TotalScore", mock.Anything, 1).Return(150, nil).Once()
	rel.On("Publish", mock.Anything, "global", models.EventMessageReceive, mock.Anything).Return(nil).Once()

	view, err := router.SendGlobal(context.Background(), 1, "oi")
	require.NoError(t, err)
	assert.Equal(t, 9, view.ID)
	assert.True(t, view.IsGlobal)
	assert.Nil(t, view.ReceiverID)
	assert.Equal(t, "ana", view.SenderUsername)
	assert.Equal(t, "Mentiroso Aprendiz", view.SenderTitle)

	messages.AssertExpectations(t)
	users.AssertExpectations(t)
	rel.AssertExpectations(t)
}

func TestSendGlobalEmptyContent(t *testing.T) {
	router, messages, _, _, _, _ := newRouterFixture()

	_, err := router.SendGlobal(context.Background(), 1, "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	messages.AssertNotCalled(t, "CreateGlobalMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendGlobalInactiveSender(t *testing.T) {
	router, messages, users, _, _, _ := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsActive: false}, nil).Once()

	_, err := router.SendGlobal(context.Background(), 1, "oi")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	messages.AssertNotCalled(t, "CreateGlobalMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendGlobalStorageFailureSurfaces(t *testing.T) {
	router, messages, users, _, _, rel := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsActive: true}, nil).Once()
	messages.On("CreateGlobalMessage", mock.Anything, 1, "oi").
		Return(models.Message{}, errors.New("db down")).Once()

	_, err := router.SendGlobal(context.Background(), 1, "oi")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrTransientStorage)
	rel.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendGlobalFanOutFailureDoesNotFailSend(t *testing.T) {
	router, messages, users, _, scores, rel := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana", IsActive: true}, nil).Once()
	messages.On("CreateGlobalMessage", mock.Anything, 1, "oi").
		Return(models.Message{ID: 3, SenderID: 1, IsGlobal: true, Content: "oi"}, nil).Once()
	scores.On("TotalScore", mock.Anything, 1).Return(0, nil).Once()
	rel.On("Publish", mock.Anything, "global", models.EventMessageReceive, mock.Anything).
		Return(errors.New("relay down")).Once()

	view, err := router.SendGlobal(context.Background(), 1, "oi")
	require.NoError(t, err)
	assert.Equal(t, 3, view.ID)
}

func TestSendPrivateSuccessCreatesOneNotification(t *testing.T) {
	router, messages, users, notifications, scores, rel := newRouterFixture()

	receiverID := 2
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana", IsActive: true}, nil).Once()
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bia", IsActive: true}, nil).Once()
	messages.On("CreatePrivateMessage", mock.Anything, 1, 2, "segredo").
		Return(models.Message{ID: 11, SenderID: 1, ReceiverID: &receiverID, Content: "segredo"}, nil).Once()
	scores.On("TotalScore", mock.Anything, 1).Return(0, nil).Once()
	notifications.On("Insert", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == 2 && n.Type == models.NotificationMessage && n.SenderID != nil && *n.SenderID == 1
	})).Return(models.Notification{ID: 4, UserID: 2, Type: models.NotificationMessage}, nil).Once()
	rel.On("Publish", mock.Anything, "dm:1:2", models.EventMessageReceive, mock.Anything).Return(nil).Once()
	rel.On("Publish", mock.Anything, "user:2", models.EventNotificationNew, mock.Anything).Return(nil).Once()

	view, err := router.SendPrivate(context.Background(), 1, 2, "segredo")
	require.NoError(t, err)
	assert.False(t, view.IsGlobal)
	require.NotNil(t, view.ReceiverID)
	assert.Equal(t, 2, *view.ReceiverID)

	notifications.AssertNumberOfCalls(t, "Insert", 1)
	rel.AssertExpectations(t)
}

func TestSendPrivateToSelfFailsValidation(t *testing.T) {
	router, messages, _, notifications, _, _ := newRouterFixture()

	_, err := router.SendPrivate(context.Background(), 7, 7, "oi")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	messages.AssertNotCalled(t, "CreatePrivateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifications.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSendPrivateInactiveReceiverForbidden(t *testing.T) {
	router, messages, users, _, _, _ := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsActive: true}, nil).Once()
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, IsActive: false}, nil).Once()

	_, err := router.SendPrivate(context.Background(), 1, 2, "oi")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	messages.AssertNotCalled(t, "CreatePrivateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendPrivateUnknownReceiverNotFound(t *testing.T) {
	router, _, users, _, _, _ := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsActive: true}, nil).Once()
	users.On("GetUser", mock.Anything, 99).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := router.SendPrivate(context.Background(), 1, 99, "oi")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSendPrivateNotificationFailureDoesNotFailSend(t *testing.T) {
	router, messages, users, notifications, scores, rel := newRouterFixture()

	receiverID := 2
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana", IsActive: true}, nil).Once()
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bia", IsActive: true}, nil).Once()
	messages.On("CreatePrivateMessage", mock.Anything, 1, 2, "oi").
		Return(models.Message{ID: 12, SenderID: 1, ReceiverID: &receiverID, Content: "oi"}, nil).Once()
	scores.On("TotalScore", mock.Anything, 1).Return(0, nil).Once()
	notifications.On("Insert", mock.Anything, mock.Anything).
		Return(models.Notification{}, errors.New("db down")).Once()
	rel.On("Publish", mock.Anything, "dm:1:2", models.EventMessageReceive, mock.Anything).Return(nil).Once()

	view, err := router.SendPrivate(context.Background(), 1, 2, "oi")
	require.NoError(t, err)
	assert.Equal(t, 12, view.ID)

	// The message still reaches the pair room, but no phantom notification
	// goes to the receiver's stream.
	rel.AssertNotCalled(t, "Publish", mock.Anything, "user:2", models.EventNotificationNew, mock.Anything)
	rel.AssertExpectations(t)
}

func TestSendGlobalDeliveryMatchesCommitOrder(t *testing.T) {
	router, messages, users, _, scores, rel := newRouterFixture()

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana", IsActive: true}, nil).Once()
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bia", IsActive: true}, nil).Once()

	firstPersisted := make(chan struct{})
	messages.On("CreateGlobalMessage", mock.Anything, 1, "first").
		Run(func(mock.Arguments) { close(firstPersisted) }).
		Return(models.Message{ID: 1, SenderID: 1, IsGlobal: true, Content: "first"}, nil).Once()
	messages.On("CreateGlobalMessage", mock.Anything, 2, "second").
		Return(models.Message{ID: 2, SenderID: 2, IsGlobal: true, Content: "second"}, nil).Once()

	// Stall the first sender between its commit and its fan-out; the second
	// sender must not overtake it inside the room.
	scores.On("TotalScore", mock.Anything, 1).
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
		Return(0, nil).Once()
	scores.On("TotalScore", mock.Anything, 2).Return(0, nil).Once()

	var mu sync.Mutex
	var deliveries []int
	rel.On("Publish", mock.Anything, "global", models.EventMessageReceive, mock.Anything).
		Run(func(args mock.Arguments) {
			view := args.Get(3).(models.MessageView)
			mu.Lock()
			deliveries = append(deliveries, view.ID)
			mu.Unlock()
		}).Return(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := router.SendGlobal(context.Background(), 1, "first")
		assert.NoError(t, err)
	}()
	<-firstPersisted
	go func() {
		defer wg.Done()
		_, err := router.SendGlobal(context.Background(), 2, "second")
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Equal(t, []int{1, 2}, deliveries)
}

func TestGlobalHistoryDecoratesSenders(t *testing.T) {
	router, messages, users, _, _, _ := newRouterFixture()

	messages.On("GlobalMessages", mock.Anything, 50, 0).Return([]models.Message{
		{ID: 1, SenderID: 1, IsGlobal: true},
		{ID: 2, SenderID: 2, IsGlobal: true},
		{ID: 3, SenderID: 1, IsGlobal: true},
	}, nil).Once()
	users.On("BulkUsers", mock.Anything, []int{1, 2}).Return([]models.User{
		{ID: 1, Username: "ana"},
		{ID: 2, Username: "bia"},
	}, nil).Once()

	views, err := router.GlobalHistory(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "ana", views[0].SenderUsername)
	assert.Equal(t, "bia", views[1].SenderUsername)
	users.AssertExpectations(t)
}
