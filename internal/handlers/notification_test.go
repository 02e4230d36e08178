package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mentei-messaging/internal/mocks"
	"mentei-messaging/internal/models"
)

func setupNotificationRouter(userID int) (*gin.Engine, *mocks.NotificationRepositoryMock) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)

	engine := gin.New()
	auth := asUser(userID)
	engine.GET("/notifications", auth, handler.List)
	engine.POST("/notifications/read", auth, handler.MarkAllRead)
	return engine, repo
}

func TestListNotifications(t *testing.T) {
	engine, repo := setupNotificationRouter(2)

	senderID := 1
	repo.On("ListForUser", mock.Anything, 2, 50, 0).Return([]models.Notification{
		{ID: 4, UserID: 2, Type: models.NotificationMessage, SenderID: &senderID, Content: "Nova mensagem de ana"},
	}, nil).Once()
	repo.On("UnreadCount", mock.Anything, 2).Return(1, nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, models.NotificationMessage, body.Notifications[0].Type)
	assert.Equal(t, 1, body.Unread)
}

func TestListNotificationsStorageFailure(t *testing.T) {
	engine, repo := setupNotificationRouter(2)

	repo.On("ListForUser", mock.Anything, 2, 50, 0).Return(nil, assert.AnError).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	engine, repo := setupNotificationRouter(2)

	repo.On("MarkAllRead", mock.Anything, 2).Return(int64(3), nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/read", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Marked int64 `json:"marked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Marked)
	repo.AssertExpectations(t)
}
