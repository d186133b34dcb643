package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const writeWait = 10 * time.Second

// connection tracks the per-socket state machine: a connection starts
// unauthenticated, may become authenticated exactly once, and ends closed.
type connection struct {
	id   string
	conn *websocket.Conn

	// mu guards writes to the socket and the state below. gorilla/websocket
	// allows at most one concurrent writer.
	mu            sync.Mutex
	userID        string
	authenticated bool
	closed        bool

	// throttle is the per-connection message-rate ceiling.
	throttle *rate.Limiter
}

func newConnection(id string, conn *websocket.Conn, messagesPerSec float64, burst int) *connection {
	return &connection{
		id:       id,
		conn:     conn,
		throttle: rate.NewLimiter(rate.Limit(messagesPerSec), burst),
	}
}

// write sends an envelope, serialized with the connection write lock.
func (c *connection) write(envelope Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(envelope)
}

// ping sends a control ping frame.
func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// authenticate binds the connection to a user identity.
func (c *connection) authenticate(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.authenticated = true
	c.mu.Unlock()
}

// identity returns the bound user and whether the connection is authenticated.
func (c *connection) identity() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.authenticated
}

// closeWithPolicy sends a policy-violation close frame and closes the socket.
func (c *connection) closeWithPolicy(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	_ = c.conn.Close()
}

// close closes the socket without a close frame. Used on read-loop exit.
func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
