package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"mentei-messaging/internal/auth"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/observability"
	"mentei-messaging/internal/room"
	"mentei-messaging/internal/services"
)

// SocketHandler owns the websocket endpoint: authentication, room
// membership, presence transitions and dispatch of client events.
type SocketHandler struct {
	hub      *Hub
	verifier auth.Verifier
	presence *services.PresenceTracker
	router   *services.MessageRouter
	receipts *services.ReadReceipts
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, verifier auth.Verifier, presence *services.PresenceTracker, router *services.MessageRouter, receipts *services.ReadReceipts) *SocketHandler {
	return &SocketHandler{
		hub:      hub,
		verifier: verifier,
		presence: presence,
		router:   router,
		receipts: receipts,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, joins the global room and the user's
// personal stream, and runs the event loop until the peer goes away.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("mentei-messaging/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	identity := observability.IdentityFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    identity.DeviceID,
		IP:          identity.IP,
		RequestID:   identity.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)

	h.hub.Join(room.Global, client)
	h.hub.Join(room.User(userID), client)
	h.presence.Connect(context.Background(), userID)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, info, "ws_connect", "")

	go h.readLoop(client)
}

func (h *SocketHandler) readLoop(client *Client) {
	info := client.Info()
	var closeReason string
	var cleanup sync.Once

	// The transport can report a dead connection more than once; the
	// offline transition must fire exactly once per connection.
	defer cleanup.Do(func() {
		h.hub.Remove(client)
		h.presence.Disconnect(context.Background(), info.UserID)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(context.Background(), info, "ws_disconnect", closeReason)
		client.close()
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
		h.dispatch(context.Background(), client, raw)
	}
}

// dispatch routes one inbound client event. Rejections go back to the
// sending connection as an error event; they never close it.
func (h *SocketHandler) dispatch(ctx context.Context, client *Client, raw []byte) {
	userID := client.Info().UserID

	var envelope models.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.sendError(client, "malformed event")
		return
	}

	switch envelope.Event {
	case models.EventUserOnline:
		// Legacy clients announce themselves after connecting. The handshake
		// already drove the online transition, so this is acknowledged and
		// otherwise ignored.

	case models.EventMessageSend:
		var p models.SendPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(client, "malformed message:send payload")
			return
		}
		h.handleSend(ctx, client, userID, p)

	case models.EventUserTyping:
		var p models.TypingPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(client, "malformed user:typing payload")
			return
		}
		p.UserID = userID
		if !room.Member(p.RoomID, userID) {
			h.sendError(client, "not a member of room")
			return
		}
		h.hub.Join(p.RoomID, client)
		h.router.RelayTyping(ctx, p)

	case models.EventMessagesRead:
		var p models.ReadPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(client, "malformed messages:read payload")
			return
		}
		a, b, err := room.ParsePair(p.RoomID)
		if err != nil || (userID != a && userID != b) {
			h.sendError(client, "not a member of room")
			return
		}
		sender := a
		if sender == userID {
			sender = b
		}
		h.hub.Join(p.RoomID, client)
		if _, err := h.receipts.MarkRead(ctx, userID, sender); err != nil {
			h.sendError(client, "could not mark messages read")
		}

	default:
		h.sendError(client, "unknown event "+envelope.Event)
	}
	observability.IncWSEvent(envelope.Event)
}

func (h *SocketHandler) handleSend(ctx context.Context, client *Client, userID int, p models.SendPayload) {
	if p.IsGlobal {
		if _, err := h.router.SendGlobal(ctx, userID, p.Content); err != nil {
			h.sendError(client, err.Error())
		}
		return
	}

	if p.ReceiverID == nil {
		h.sendError(client, "receiver_id is required for private messages")
		return
	}
	// Join the pair room up front so the sender sees replies and read
	// receipts without an extra round trip.
	h.hub.Join(room.Canonical(userID, *p.ReceiverID), client)
	if _, err := h.router.SendPrivate(ctx, userID, *p.ReceiverID, p.Content); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *SocketHandler) sendError(client *Client, message string) {
	body, _ := json.Marshal(gin.H{"message": message})
	payload, _ := json.Marshal(models.Envelope{Event: "error", Payload: body})
	if err := client.write(payload); err != nil {
		log.Printf("websocket error write failed: %v", err)
	}
}

func (h *SocketHandler) publishLifecycle(ctx context.Context, info ConnInfo, event, reason string) {
	payload := map[string]any{
		"ws": map[string]any{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, "chat.events.ws",
		observability.NewEventEnvelope("ws_events", event, payload),
		observability.BuildHeaders(info.RequestID, info.TraceID))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
