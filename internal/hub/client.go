package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/pkg/log"
)

const defaultSendBuffer = 256

// Client is one websocket connection. Everything written to it goes
// through Send, drained by WritePump.
type Client struct {
	ID      string
	Session *domain.Session
	Send    chan []byte

	conn   *websocket.Conn
	config config.WebSocketConfig
	mu     sync.Mutex
	closed bool
}

// NewClient creates a client without a connection; Attach it once the
// handshake is accepted.
func NewClient(id string, session *domain.Session, cfg config.WebSocketConfig) *Client {
	size := cfg.SendBufferSize
	if size <= 0 {
		size = defaultSendBuffer
	}
	return &Client{
		ID:      id,
		Session: session,
		Send:    make(chan []byte, size),
		config:  cfg,
	}
}

// Attach binds the upgraded connection.
func (c *Client) Attach(conn *websocket.Conn) {
	c.conn = conn
}

// Enqueue queues data without blocking. It returns false when the queue is
// full or already closed.
func (c *Client) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Close closes the send queue; WritePump then closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump delivers frames to handler one at a time, in arrival order.
// onClose runs once the connection stops reading.
func (c *Client) ReadPump(handler func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.conn.Close()
	}()

	if c.config.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.config.MaxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldClientID, c.ID).Msg("websocket read error")
			}
			break
		}

		if c.Session != nil {
			c.Session.UpdateActivity()
		}

		handler(c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
