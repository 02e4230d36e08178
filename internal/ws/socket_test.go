package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mentei-messaging/internal/auth"
	"mentei-messaging/internal/mocks"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/relay"
	"mentei-messaging/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type socketFixture struct {
	server   *httptest.Server
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	scores   *mocks.ScoreRepositoryMock
}

// setupSocketServer runs the real handshake and dispatch path over a local
// hub, with only the persistence layer mocked.
func setupSocketServer(t *testing.T) socketFixture {
	t.Helper()

	f := socketFixture{
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		scores:   new(mocks.ScoreRepositoryMock),
	}
	notifications := new(mocks.NotificationRepositoryMock)

	f.users.On("SetOnline", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("PrivatePeers", mock.Anything, mock.Anything).Return([]int{}, nil)

	hub := NewHub()
	rel := relay.NewLocal(hub)
	presence := services.NewPresenceTracker(f.users, rel)
	router := services.NewMessageRouter(f.messages, f.users, notifications, f.scores, rel)
	receipts := services.NewReadReceipts(f.messages, rel)
	handler := NewSocketHandler(hub, auth.MockVerifier{}, presence, router, receipts)

	engine := gin.New()
	engine.GET("/ws", handler.Handle)
	f.server = httptest.NewServer(engine)
	t.Cleanup(f.server.Close)
	return f
}

func dialSocket(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) models.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func TestHandshakeBroadcastsOnlineStatus(t *testing.T) {
	f := setupSocketServer(t)
	conn := dialSocket(t, f.server, "1")

	envelope := readEnvelope(t, conn)
	assert.Equal(t, models.EventUserStatus, envelope.Event)

	var status models.StatusPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &status))
	assert.Equal(t, 1, status.UserID)
	assert.Equal(t, "online", status.Status)
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	f := setupSocketServer(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestUserOnlineEventIsAccepted(t *testing.T) {
	f := setupSocketServer(t)

	f.users.On("GetUser", mock.Anything, 1).
		Return(models.User{ID: 1, Username: "ana", IsActive: true}, nil)
	f.messages.On("CreateGlobalMessage", mock.Anything, 1, "oi").
		Return(models.Message{ID: 3, SenderID: 1, IsGlobal: true, Content: "oi"}, nil).Once()
	f.scores.On("TotalScore", mock.Anything, 1).Return(0, nil)

	conn := dialSocket(t, f.server, "1")

	envelope := readEnvelope(t, conn)
	require.Equal(t, models.EventUserStatus, envelope.Event)

	// A legacy client announces itself, then sends a message. If the
	// announcement were rejected, the next frame would be an error envelope
	// instead of the delivered message.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"user:online","payload":{"user_id":1}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"message:send","payload":{"is_global":true,"content":"oi"}}`)))

	envelope = readEnvelope(t, conn)
	assert.Equal(t, models.EventMessageReceive, envelope.Event)

	var view models.MessageView
	require.NoError(t, json.Unmarshal(envelope.Payload, &view))
	assert.Equal(t, 3, view.ID)
	assert.Equal(t, "oi", view.Content)
}

func TestUnknownEventGetsErrorEnvelope(t *testing.T) {
	f := setupSocketServer(t)
	conn := dialSocket(t, f.server, "1")

	envelope := readEnvelope(t, conn)
	require.Equal(t, models.EventUserStatus, envelope.Event)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"bogus:event","payload":{}}`)))

	envelope = readEnvelope(t, conn)
	assert.Equal(t, "error", envelope.Event)
}
