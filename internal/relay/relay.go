// Package relay is the transport collaborator between the message router
// and connected clients. The local variant fans out through the in-process
// socket hub; the NATS variant bridges rooms through a hosted pub/sub relay
// so several nodes serve the same rooms interchangeably.
package relay

import (
	"context"
	"log"
)

// RoomPublisher is the local fan-out target, satisfied by the socket hub.
type RoomPublisher interface {
	Publish(roomID, event string, payload any)
}

// Relay delivers an event to every subscriber of a room, wherever their
// connection lives.
type Relay interface {
	Publish(ctx context.Context, roomID, event string, payload any) error
	Close() error
}

// New selects the relay for the configured mode. A NATS connection failure
// falls back to local-only fan-out rather than refusing to start.
func New(mode, natsURL string, local RoomPublisher) Relay {
	if mode == "nats" {
		r, err := NewNATS(natsURL, local)
		if err != nil {
			log.Printf("nats relay unavailable, falling back to local: %v", err)
			return NewLocal(local)
		}
		return r
	}
	return NewLocal(local)
}

// Mode reports the active relay variant for startup logging.
func Mode(r Relay) string {
	switch r.(type) {
	case *NATSRelay:
		return "nats"
	case *LocalRelay:
		return "local"
	default:
		return "unknown"
	}
}

// LocalRelay delivers directly to the in-process hub.
type LocalRelay struct {
	local RoomPublisher
}

// NewLocal constructs a LocalRelay.
func NewLocal(local RoomPublisher) *LocalRelay {
	return &LocalRelay{local: local}
}

func (r *LocalRelay) Publish(_ context.Context, roomID, event string, payload any) error {
	r.local.Publish(roomID, event, payload)
	return nil
}

func (r *LocalRelay) Close() error {
	return nil
}
