package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/sjson"

	"github.com/dshills/easel/internal/event"
	"github.com/dshills/easel/internal/metrics"
)

const (
	wsPongWait    = 45 * time.Second
	wsPingPeriod  = (wsPongWait * 9) / 10
	wsWriteWait   = 10 * time.Second
	wsMaxReadSize = 4096
	wsSendBuffer  = 64
)

// ErrHubClosed is returned by ServeHTTP after Close.
var ErrHubClosed = errors.New("hub closed")

// Hub fans bus events out to connected websocket viewers. Each viewer has
// its own bounded send queue; a viewer that falls behind loses frames
// rather than stalling the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	origins []string

	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithAllowedOrigins lets browser pages from origins open the event
// stream. Without it only same-origin pages and non-browser clients may
// connect.
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		h.origins = slices.Clone(origins)
	}
}

// NewHub creates a hub. m may be nil.
func NewHub(logger *slog.Logger, m *metrics.Metrics, opts ...HubOption) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.With("component", "hub"),
		metrics: m,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 8192,
		CheckOrigin:     h.checkOrigin,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetAllowedOrigins replaces the extra origins accepted by the hub.
func (h *Hub) SetAllowedOrigins(origins []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.origins = slices.Clone(origins)
}

// checkOrigin accepts requests without an Origin header, same-origin
// requests, and origins on the allow-list.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	h.mu.Lock()
	allowed := h.origins
	h.mu.Unlock()
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
			return true
		}
	}
	h.logger.Warn("rejected event stream origin", "origin", origin, "remote", r.RemoteAddr)
	return false
}

// Attach subscribes the hub to every topic on bus.
func (h *Hub) Attach(bus *event.Bus) (*event.Subscription, error) {
	return bus.Subscribe(event.WildcardMulti, func(_ context.Context, ev event.Event) {
		h.Broadcast(ev)
	})
}

// Broadcast queues ev for every viewer.
func (h *Hub) Broadcast(ev event.Event) {
	frame, err := encodeFrame(ev)
	if err != nil {
		h.logger.Error("encode event frame", "topic", ev.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
			h.metrics.EventBroadcast()
		default:
			h.metrics.EventDropped()
			h.logger.Warn("viewer send buffer full, dropping frame", "client", c.id, "topic", ev.Type)
		}
	}
}

// encodeFrame renders {"type":...,"id":...,"ts":...,"payload":...}.
func encodeFrame(ev event.Event) ([]byte, error) {
	frame, err := sjson.SetBytes(nil, "type", string(ev.Type))
	if err != nil {
		return nil, err
	}
	if frame, err = sjson.SetBytes(frame, "id", ev.ID); err != nil {
		return nil, err
	}
	if frame, err = sjson.SetBytes(frame, "ts", ev.Time.UnixMilli()); err != nil {
		return nil, err
	}
	return sjson.SetBytes(frame, "payload", ev.Payload)
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the viewer
// disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
	if !h.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ErrHubClosed.Error()),
			time.Now().Add(wsWriteWait))
		_ = conn.Close()
		return
	}
	defer h.remove(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.ViewerConnected()
	h.logger.Info("viewer connected", "client", c.id, "remote", c.conn.RemoteAddr().String())
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.metrics.ViewerDisconnected()
		h.logger.Info("viewer disconnected", "client", c.id)
	}
	h.mu.Unlock()
	c.close()
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readLoop discards viewer messages and keeps the read deadline moving
// with each pong.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(wsMaxReadSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every viewer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(wsWriteWait))
		c.close()
	}
}
