package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentei-messaging/internal/models"
)

func TestJoinLeaveRoomSize(t *testing.T) {
	hub := NewHub()
	a := NewClient(nil, ConnInfo{ConnID: "a", UserID: 1})
	b := NewClient(nil, ConnInfo{ConnID: "b", UserID: 2})

	hub.Join("global", a)
	hub.Join("global", a) // joining twice is a no-op
	hub.Join("global", b)
	assert.Equal(t, 2, hub.RoomSize("global"))

	hub.Leave("global", a)
	assert.Equal(t, 1, hub.RoomSize("global"))

	hub.Leave("global", b)
	assert.Equal(t, 0, hub.RoomSize("global"))
}

func TestRemoveDropsClientFromAllRooms(t *testing.T) {
	hub := NewHub()
	a := NewClient(nil, ConnInfo{ConnID: "a", UserID: 1})

	hub.Join("global", a)
	hub.Join("user:1", a)
	hub.Join("dm:1:2", a)

	hub.Remove(a)
	assert.Equal(t, 0, hub.RoomSize("global"))
	assert.Equal(t, 0, hub.RoomSize("user:1"))
	assert.Equal(t, 0, hub.RoomSize("dm:1:2"))
}

func TestPublishDeliversEnvelopeToRoomMembers(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Join("global", NewClient(conn, ConnInfo{ConnID: newConnID(), UserID: 1}))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.RoomSize("global") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish("global", models.EventMessageReceive, map[string]string{"content": "oi"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, models.EventMessageReceive, envelope.Event)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "oi", payload["content"])
}

func TestPublishToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish("global", models.EventMessageReceive, map[string]string{"content": "oi"})
	assert.Equal(t, 0, hub.RoomSize("global"))
}
