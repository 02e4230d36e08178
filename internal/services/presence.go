package services

import (
	"context"
	"log"
	"sync"

	"mentei-messaging/internal/models"
	"mentei-messaging/internal/observability"
	"mentei-messaging/internal/relay"
	"mentei-messaging/internal/repositories"
	"mentei-messaging/internal/room"
)

// PresenceTracker aggregates per-connection events into per-user presence.
// A user is online while at least one connection is open, so the offline
// transition fires only when the last connection for that user closes.
// All fan-out here is best-effort: presence must never kill a connection.
type PresenceTracker struct {
	users repositories.UserRepository
	relay relay.Relay

	mu     sync.Mutex
	counts map[int]int
}

// NewPresenceTracker builds a PresenceTracker.
func NewPresenceTracker(users repositories.UserRepository, rel relay.Relay) *PresenceTracker {
	return &PresenceTracker{
		users:  users,
		relay:  rel,
		counts: make(map[int]int),
	}
}

// ResetAll marks every user offline. Run once at startup: in-memory counts
// start empty, so the store must agree.
func (t *PresenceTracker) ResetAll(ctx context.Context) error {
	return t.users.ResetAllOnline(ctx)
}

// Connect records one opened connection and returns the new count for the
// user. The first connection flips the user online and broadcasts it.
func (t *PresenceTracker) Connect(ctx context.Context, userID int) int {
	t.mu.Lock()
	t.counts[userID]++
	count := t.counts[userID]
	t.mu.Unlock()

	if count == 1 {
		observability.IncOnlineUsers()
		if err := t.users.SetOnline(ctx, userID, true); err != nil {
			log.Printf("presence persist online failed user=%d: %v", userID, err)
		}
		t.broadcast(ctx, userID, "online")
	}
	return count
}

// Disconnect records one closed connection and returns the remaining count.
// Only the last close flips the user offline. A disconnect without a
// matching connect is ignored.
func (t *PresenceTracker) Disconnect(ctx context.Context, userID int) int {
	t.mu.Lock()
	count, ok := t.counts[userID]
	if !ok {
		t.mu.Unlock()
		return 0
	}
	count--
	if count <= 0 {
		delete(t.counts, userID)
		count = 0
	} else {
		t.counts[userID] = count
	}
	t.mu.Unlock()

	if ok && count == 0 {
		observability.DecOnlineUsers()
		if err := t.users.SetOnline(ctx, userID, false); err != nil {
			log.Printf("presence persist offline failed user=%d: %v", userID, err)
		}
		t.broadcast(ctx, userID, "offline")
	}
	return count
}

// Online reports the in-memory presence of a user.
func (t *PresenceTracker) Online(userID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[userID] > 0
}

// broadcast sends user:status to the user's private-conversation peers and
// to anyone watching the user's personal stream. Failures are logged and
// swallowed.
func (t *PresenceTracker) broadcast(ctx context.Context, userID int, status string) {
	payload := models.StatusPayload{UserID: userID, Status: status}

	peers, err := t.users.PrivatePeers(ctx, userID)
	if err != nil {
		log.Printf("presence peer lookup failed user=%d: %v", userID, err)
		peers = nil
	}
	for _, peer := range peers {
		if err := t.relay.Publish(ctx, room.User(peer), models.EventUserStatus, payload); err != nil {
			log.Printf("presence fan-out failed user=%d peer=%d: %v", userID, peer, err)
		}
	}
	if err := t.relay.Publish(ctx, room.User(userID), models.EventUserStatus, payload); err != nil {
		log.Printf("presence fan-out failed user=%d: %v", userID, err)
	}
	observability.IncWSEvent("user_status_" + status)
}
