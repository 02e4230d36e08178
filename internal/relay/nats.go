package relay

import (
	"context"
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "mentei.rooms."

// frame is the relay wire format: the room travels in the body so the
// subscriber does not need to reverse-map subjects.
type frame struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NATSRelay publishes room events to a hosted NATS relay and feeds inbound
// frames into the local hub. Every node publishes and subscribes, so a
// message sent on one node reaches sockets held by any node.
type NATSRelay struct {
	nc    *nats.Conn
	sub   *nats.Subscription
	local RoomPublisher
}

// NewNATS connects and subscribes to the room subject space.
func NewNATS(url string, local RoomPublisher) (*NATSRelay, error) {
	nc, err := nats.Connect(url, nats.Name("mentei-messaging"))
	if err != nil {
		return nil, err
	}

	r := &NATSRelay{nc: nc, local: local}
	sub, err := nc.Subscribe(subjectPrefix+">", r.handle)
	if err != nil {
		nc.Close()
		return nil, err
	}
	r.sub = sub

	log.Printf("nats relay connected url=%s", url)
	return r, nil
}

func (r *NATSRelay) Publish(_ context.Context, roomID, event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(frame{Room: roomID, Event: event, Payload: body})
	if err != nil {
		return err
	}
	return r.nc.Publish(subjectPrefix+roomID, data)
}

func (r *NATSRelay) handle(msg *nats.Msg) {
	var f frame
	if err := json.Unmarshal(msg.Data, &f); err != nil {
		log.Printf("nats relay bad frame subject=%s: %v", msg.Subject, err)
		return
	}
	r.local.Publish(f.Room, f.Event, f.Payload)
}

func (r *NATSRelay) Close() error {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	if r.nc != nil {
		r.nc.Close()
	}
	return nil
}
