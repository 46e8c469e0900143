// Package push broadcasts index changes to websocket clients.
//
// The Hub implements index.Notifier. Every connected client receives a
// "file-changed" message per document event and an "index-updated" message
// carrying the full snapshot after every mutation. Delivery is best effort:
// a client whose send buffer is full misses the message.
package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Aman-CERP/termwiki/internal/index"
)

// Message types.
const (
	TypeFileChanged  = "file-changed"
	TypeIndexUpdated = "index-updated"
	TypeRefreshIndex = "refresh-index"
)

// Actions reported in a file-changed payload.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	defaultSendBuffer = 32
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// FileChange is the payload of a file-changed message.
type FileChange struct {
	Path   string `json:"path"`
	Action string `json:"action"`
}

// RefreshFunc rebuilds the index when a client asks for it.
type RefreshFunc func(ctx context.Context) error

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*client
	closed     bool
	upgrader   websocket.Upgrader
	refresh    RefreshFunc
	sendBuffer int
	dropped    atomic.Uint64
	wg         sync.WaitGroup
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Option configures a Hub.
type Option func(*Hub)

// WithRefresh sets the callback run on a client's refresh-index request.
func WithRefresh(fn RefreshFunc) Option {
	return func(h *Hub) { h.refresh = fn }
}

// WithSendBuffer sets the per-client queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub creates a hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*client),
		sendBuffer: defaultSendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ index.Notifier = (*Hub)(nil)

// DocumentChanged broadcasts a file-changed message.
func (h *Hub) DocumentChanged(path string, kind index.EventKind) {
	h.Broadcast(Message{
		Type:    TypeFileChanged,
		Payload: FileChange{Path: path, Action: action(kind)},
	})
}

// IndexUpdated broadcasts the new snapshot.
func (h *Hub) IndexUpdated(snap *index.Snapshot) {
	h.Broadcast(Message{Type: TypeIndexUpdated, Payload: snap})
}

func action(kind index.EventKind) string {
	switch kind {
	case index.EventCreated:
		return ActionCreate
	case index.EventDeleted:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

// Broadcast encodes msg once and queues it for every client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode push message",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			count := h.dropped.Add(1)
			slog.Warn("push client too slow, dropping message",
				slog.String("client", c.id),
				slog.String("type", msg.Type),
				slog.Uint64("total_dropped", count))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages slow clients have missed.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ServeHTTP upgrades the request and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()
	h.readPump(r.Context(), c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.wg.Add(1)
	slog.Info("push client connected",
		slog.String("client", c.id),
		slog.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	slog.Info("push client disconnected",
		slog.String("client", c.id),
		slog.Int("clients", len(h.clients)))
}

// readPump handles client messages until the connection fails.
func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("push client read failed",
					slog.String("client", c.id),
					slog.String("error", err.Error()))
			}
			return
		}
		h.handle(ctx, c, msg)
	}
}

func (h *Hub) handle(ctx context.Context, c *client, msg Message) {
	switch msg.Type {
	case TypeRefreshIndex:
		if h.refresh == nil {
			return
		}
		slog.Info("index refresh requested", slog.String("client", c.id))
		// The rebuild outlives a client that disconnects mid-request.
		if err := h.refresh(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("index refresh failed",
				slog.String("client", c.id),
				slog.String("error", err.Error()))
		}
	default:
		slog.Debug("ignoring push client message",
			slog.String("client", c.id),
			slog.String("type", msg.Type))
	}
}

// writePump drains the client's queue and keeps the connection alive.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client and refuses new ones. It waits for the
// per-client writers to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
