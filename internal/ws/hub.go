package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"mentei-messaging/internal/models"
	"mentei-messaging/internal/observability"
)

// Hub maintains active websocket rooms. Rooms are identified by canonical
// names: the global room, per-user streams and derived conversation rooms.
type Hub struct {
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// Join registers a client in a room. Joining twice is a no-op.
func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
}

// Leave removes a client from a room.
func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Remove drops the client from every room it joined.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, clients := range h.rooms {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RoomSize reports the number of clients in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Publish fans an event out to every client in a room. Write failures close
// and evict the offending connection; delivery to the rest continues.
func (h *Hub) Publish(roomID, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("hub marshal payload failed room=%s event=%s: %v", roomID, event, err)
		return
	}
	envelope, err := json.Marshal(models.Envelope{Event: event, Payload: body})
	if err != nil {
		log.Printf("hub marshal envelope failed room=%s event=%s: %v", roomID, event, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(envelope); err != nil {
			log.Printf("websocket write error: %v", err)
			c.close()
			h.Remove(c)
			h.publishWSError(roomID, c, err)
		}
	}
}

func (h *Hub) publishWSError(roomID string, c *Client, err error) {
	info := c.Info()
	payload := map[string]any{
		"ws": map[string]any{
			"room_id":     roomID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]any{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	_ = observability.PublishEvent(context.Background(), "chat.events.ws",
		observability.NewEventEnvelope("ws_events", "ws_error", payload),
		observability.BuildHeaders(info.RequestID, info.TraceID))
	observability.IncWSEvent("ws_error")
}
