package notify

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrHubClosed is returned by Attach after Close.
var ErrHubClosed = errors.New("hub closed")

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 4096
)

// HubConfig tunes per-connection queues and keepalive.
type HubConfig struct {
	SendBuffer   int
	PingInterval time.Duration
}

// Session identifies the token a connection was opened with. A zero ExpiresAt
// never expires.
type Session struct {
	PrincipalID string
	TokenID     string
	ExpiresAt   time.Time
}

type client struct {
	id        string
	session   Session
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	expiry    *time.Timer
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}

// Hub owns the live WebSocket connections, keyed by connection id. Sends never
// block: a full queue drops the frame.
type Hub struct {
	cfg     HubConfig
	log     *slog.Logger
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates a Hub.
func NewHub(cfg HubConfig, log *slog.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Hub{cfg: cfg, log: log, clients: make(map[string]*client)}
}

// Attach registers conn and starts its writer. Serve must be called next to
// run the reader; it returns when the connection ends, at the latest when the
// session's token expires.
func (h *Hub) Attach(conn *websocket.Conn, s Session) (string, error) {
	c := &client{
		id:      uuid.NewString(),
		session: s,
		conn:    conn,
		send:    make(chan []byte, h.cfg.SendBuffer),
		done:    make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrHubClosed
	}
	h.clients[c.id] = c
	if !s.ExpiresAt.IsZero() {
		c.expiry = time.AfterFunc(time.Until(s.ExpiresAt), func() {
			h.log.Info("ws token expired", "conn_id", c.id, "principal_id", s.PrincipalID)
			c.close()
		})
	}
	h.mu.Unlock()

	go h.writePump(c)
	h.log.Info("ws connected", "conn_id", c.id, "principal_id", s.PrincipalID)
	return c.id, nil
}

// Serve reads from connID until the peer goes away or misses two pings, then
// detaches it.
func (h *Hub) Serve(connID string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	defer h.detach(c)

	deadline := 2 * h.cfg.PingInterval
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})
	for {
		// Clients only send control frames; data frames are discarded.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("ws read ended", "conn_id", c.id, "err", err)
			}
			return
		}
	}
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	if c.expiry != nil {
		c.expiry.Stop()
	}
	c.close()
	h.log.Info("ws disconnected", "conn_id", c.id, "principal_id", c.session.PrincipalID)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.log.Debug("ws write failed", "conn_id", c.id, "err", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}

// SendTo queues frame for one connection. Reports false when the connection is
// gone or its queue is full.
func (h *Hub) SendTo(connID string, frame []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.enqueue(c, frame)
}

// SendAll queues frame for every connection and returns how many accepted it.
func (h *Hub) SendAll(frame []byte) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	n := 0
	for _, c := range targets {
		if h.enqueue(c, frame) {
			n++
		}
	}
	return n
}

func (h *Hub) enqueue(c *client, frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		h.log.Debug("ws send queue full, dropping frame", "conn_id", c.id, "principal_id", c.session.PrincipalID)
		return false
	}
}

// DropToken closes every connection opened with tokenID and returns how many.
// Logout uses it so a revoked token stops receiving events.
func (h *Hub) DropToken(tokenID string) int {
	if tokenID == "" {
		return 0
	}
	h.mu.RLock()
	var targets []*client
	for _, c := range h.clients {
		if c.session.TokenID == tokenID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.close()
	}
	return len(targets)
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		if c.expiry != nil {
			c.expiry.Stop()
		}
		c.close()
	}
	h.log.Info("ws hub closed", "connections", len(clients))
}
