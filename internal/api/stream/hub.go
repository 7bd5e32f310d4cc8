package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
	"github.com/wonny/premarket-signals/pkg/redis"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	sendBuffer   = 16
)

// MessageTypeRun tags a completed run on the wire
const MessageTypeRun = "run"

// Message is the envelope every websocket client receives
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hub keeps websocket clients and broadcasts completed runs to all of them
// ⭐ SSOT: websocket fan-out is done here only
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	upgrader websocket.Upgrader
	logger   *logger.Logger
}

var _ contracts.ResultPublisher = (*Hub)(nil)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: log,
	}
}

// ServeWS upgrades the request and registers the client
// GET /ws/signals
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// Publish broadcasts a completed run
func (h *Hub) Publish(_ context.Context, result *contracts.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return h.broadcastRun(data)
}

// Listen forwards runs announced on the Redis results channel until ctx is done
func (h *Hub) Listen(ctx context.Context, cache *redis.Cache) error {
	return cache.Subscribe(ctx, redis.ResultsChannel, func(payload []byte) {
		if err := h.broadcastRun(payload); err != nil {
			h.logger.WithError(err).Warn("Dropped invalid run payload")
		}
	})
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.StreamClients.Set(0)
}

func (h *Hub) broadcastRun(run []byte) error {
	if !json.Valid(run) {
		return fmt.Errorf("invalid run json")
	}

	msg, err := json.Marshal(Message{Type: MessageTypeRun, Data: run})
	if err != nil {
		return err
	}
	h.broadcast(msg)
	return nil
}

// broadcast never blocks: a client whose buffer is full misses the message
func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent, dropped := 0, 0
	for c := range h.clients {
		select {
		case c.send <- msg:
			sent++
		default:
			dropped++
		}
	}

	if dropped > 0 {
		metrics.StreamDropped.Add(float64(dropped))
	}
	h.logger.WithFields(map[string]interface{}{
		"sent":    sent,
		"dropped": dropped,
	}).Debug("Broadcast run")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.StreamClients.Set(float64(len(h.clients)))

	h.logger.WithField("clients", len(h.clients)).Debug("WebSocket client registered")
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.StreamClients.Set(float64(len(h.clients)))

	h.logger.WithField("clients", len(h.clients)).Debug("WebSocket client unregistered")
}

// writePump pumps messages from the hub to the connection
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only handles control frames; clients do not send commands
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Debug("WebSocket read error")
			}
			return
		}
	}
}
