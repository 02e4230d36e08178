package ws

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnInfo identifies a websocket connection for audit events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Client wraps one websocket connection. The mutex serializes writes so
// room fan-out from concurrent publishers stays in commit order per
// connection.
type Client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

// Info returns the connection identity.
func (c *Client) Info() ConnInfo {
	return c.info
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) close() {
	_ = c.conn.Close()
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
