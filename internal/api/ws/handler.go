package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
)

const (
	writeTimeout = 10 * time.Second
	outboxSize   = 64
)

var upgrader = websocket.Upgrader{
	// the webview is served from a custom scheme
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is sent by the webview
type ClientMessage struct {
	Type string    `json:"type"`
	Key  query.Key `json:"key,omitempty"`
}

// StateMessage reports one transition of a cache key
type StateMessage struct {
	Type      string       `json:"type"`
	Key       query.Key    `json:"key"`
	Status    query.Status `json:"status"`
	Revision  uint64       `json:"revision"`
	Stale     bool         `json:"stale"`
	Error     string       `json:"error,omitempty"`
	Data      any          `json:"data,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// Handler streams query cache transitions to webview clients
type Handler struct {
	cache   *query.Cache
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(cache *query.Cache, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cache: cache, logger: logger, metrics: metrics}
}

// HandleConnection upgrades the request, then pushes every state change of
// every cache key until the client goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	s := &session{
		conn:    conn,
		outbox:  make(chan any, outboxSize),
		done:    make(chan struct{}),
		logger:  h.logger,
		metrics: h.metrics,
	}
	go s.writeLoop()
	defer s.close()

	keys := h.cache.Keys()
	for _, key := range keys {
		unsubscribe := h.cache.Subscribe(key, func(state query.State) {
			s.push(stateMessage(state))
		})
		defer unsubscribe()
	}

	s.push(map[string]any{
		"type":      "system",
		"message":   "Connected to Proxy Launcher Engine",
		"keys":      keys,
		"timestamp": time.Now().Unix(),
	})
	h.snapshot(s, keys)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "ping":
			s.push(map[string]any{"type": "pong", "timestamp": time.Now().Unix()})
		case "snapshot":
			h.snapshot(s, keys)
		case "invalidate":
			if !known(keys, msg.Key) {
				s.pushError("unknown key")
				continue
			}
			h.cache.Invalidate(msg.Key)
		default:
			s.pushError("unknown message type")
		}
	}
}

func (h *Handler) snapshot(s *session, keys []query.Key) {
	for _, key := range keys {
		s.push(stateMessage(h.cache.Peek(key)))
	}
}

func known(keys []query.Key, key query.Key) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func stateMessage(state query.State) StateMessage {
	return StateMessage{
		Type:      "state",
		Key:       state.Key,
		Status:    state.Status,
		Revision:  state.Revision,
		Stale:     state.Stale,
		Error:     state.Error,
		Data:      state.Data,
		Timestamp: time.Now().Unix(),
	}
}

// session serializes writes to one connection
type session struct {
	conn    *websocket.Conn
	outbox  chan any
	done    chan struct{}
	once    sync.Once
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// push queues a message; a client that cannot keep up loses messages
// rather than stalling the cache
func (s *session) push(msg any) {
	select {
	case <-s.done:
	case s.outbox <- msg:
	default:
		s.logger.Warn("WebSocket client too slow, dropping message")
	}
}

func (s *session) pushError(message string) {
	s.push(map[string]any{
		"type":      "error",
		"message":   message,
		"timestamp": time.Now().Unix(),
	})
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("WebSocket write failed", zap.Error(err))
				s.close()
				return
			}
			s.metrics.RecordWSMessage("out", messageType(msg))
		}
	}
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

func messageType(msg any) string {
	switch m := msg.(type) {
	case StateMessage:
		return m.Type
	case map[string]any:
		if t, ok := m["type"].(string); ok {
			return t
		}
	}
	return "unknown"
}
