package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound frames queued per connection before events are dropped.
	sendBufferSize = 64
)

// Conn is one live browser connection.
type Conn struct {
	id     string
	userID int64 // 0 for anonymous connections
	ws     *websocket.Conn
	hub    *Hub

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn wraps ws. ws may be nil in tests that only inspect the queue.
func NewConn(hub *Hub, ws *websocket.Conn, userID int64) *Conn {
	return &Conn{
		id:     xid.New().String(),
		userID: userID,
		ws:     ws,
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) UserID() int64 { return c.userID }

func (c *Conn) Authenticated() bool { return c.userID != 0 }

// TrySend queues msg without blocking. It reports false, and counts the
// drop, when the connection is closed or its queue is full.
func (c *Conn) TrySend(event string, msg []byte) bool {
	select {
	case <-c.done:
		c.hub.metrics.EventDropped(event, "closed")
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.hub.metrics.EventDropped(event, "full")
		c.hub.logger.Warn("outbound queue full, event dropped",
			slog.String("conn", c.id),
			slog.Int64("userID", c.userID),
			slog.String("event", event),
		)
		return false
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ReadPump reads frames until the peer goes away, handing each one to
// handle on the calling goroutine. On return the connection has left the
// hub and the socket is closed.
func (c *Conn) ReadPump(ctx context.Context, handle func(context.Context, *Conn, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed",
					slog.String("conn", c.id),
					slog.Int64("userID", c.userID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		handle(ctx, c, message)
	}
}

// WritePump drains the outbound queue to the socket and keeps the
// connection alive with pings. It returns when Close is called or a write
// fails.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}
