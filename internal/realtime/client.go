package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one authenticated WebSocket connection. The username is bound
// at handshake time from the realtime ticket and cannot be changed by the
// client afterwards.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	username string

	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient wraps an upgraded connection for username
func NewClient(hub *Hub, conn *websocket.Conn, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		username: username,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// Username returns the authenticated identity bound to the connection
func (c *Client) Username() string {
	return c.username
}

// Start runs the read and write pumps. Returns immediately; the pumps own
// the connection from here on.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// enqueue hands a marshaled envelope to the write pump. A full buffer
// means the consumer is too slow and the connection gets dropped rather
// than blocking the emitter.
func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		log.Printf("Warning: dropping slow realtime consumer for %s", c.username)
		c.hub.Unregister(c)
	}
}

// close signals the pumps to exit. Called by the hub during Unregister.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump handles inbound events sequentially, giving each connection
// arrival-order handling
func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.presence.Refresh(c.username)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Warning: websocket read for %s failed: %v", c.username, err)
			}
			return
		}
		c.hub.handleEvent(c, data)
	}
}

// writePump serializes all writes to the connection and keeps it alive
// with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.Unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c)
				return
			}
		}
	}
}
