package realtime

import (
	"log/slog"
	"sync"

	"github.com/sakif/booping/internal/metrics"
)

// Hub tracks live connections and fans events out to them.
type Hub struct {
	mu     sync.RWMutex
	groups map[int64]map[*Conn]struct{} // userID -> that user's connections
	all    map[*Conn]struct{}

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHub(m *metrics.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		groups:  make(map[int64]map[*Conn]struct{}),
		all:     make(map[*Conn]struct{}),
		metrics: m,
		logger:  logger,
	}
}

// Register adds c to the hub and, when authenticated, to its user's group.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	if _, ok := h.all[c]; ok {
		h.mu.Unlock()
		return
	}
	h.all[c] = struct{}{}
	if c.Authenticated() {
		g, ok := h.groups[c.userID]
		if !ok {
			g = make(map[*Conn]struct{})
			h.groups[c.userID] = g
		}
		g[c] = struct{}{}
	}
	h.mu.Unlock()

	h.metrics.ConnectionOpened(c.Authenticated())
	h.logger.Debug("connection registered",
		slog.String("conn", c.id),
		slog.Int64("userID", c.userID),
	)
}

// Unregister removes c. Removing a connection that is not registered is a
// no-op.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	_, ok := h.all[c]
	if ok {
		delete(h.all, c)
		if g, found := h.groups[c.userID]; found {
			delete(g, c)
			if len(g) == 0 {
				delete(h.groups, c.userID)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	h.metrics.ConnectionClosed(c.Authenticated())
	h.logger.Debug("connection unregistered",
		slog.String("conn", c.id),
		slog.Int64("userID", c.userID),
	)
}

// EmitToUser queues ev on every connection of userID and returns how many
// accepted it.
func (h *Hub) EmitToUser(userID int64, ev Event) int {
	msg, ok := h.encode(ev)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.groups[userID] {
		if c.TrySend(ev.Name, msg) {
			n++
		}
	}
	return n
}

// Broadcast queues ev on every connection, anonymous ones included.
func (h *Hub) Broadcast(ev Event) int {
	msg, ok := h.encode(ev)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.all {
		if c.TrySend(ev.Name, msg) {
			n++
		}
	}
	return n
}

// Send queues ev on a single connection.
func (h *Hub) Send(c *Conn, ev Event) bool {
	msg, ok := h.encode(ev)
	if !ok {
		return false
	}
	return c.TrySend(ev.Name, msg)
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) UserConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

// Shutdown closes every connection. Their pumps then unregister them.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.all {
		c.Close()
	}
}

func (h *Hub) encode(ev Event) ([]byte, bool) {
	msg, err := encode(ev)
	if err != nil {
		h.logger.Error("encoding event",
			slog.String("event", ev.Name),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return msg, true
}
