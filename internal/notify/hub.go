// internal/notify/hub.go
package notify

import (
	"context"
	"sync"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Hub keeps the live WebSocket connections of each user and pushes
// notification text to them.
type Hub struct {
	mu      sync.Mutex
	clients map[int64]map[*websocket.Conn]bool
	metrics *metrics.Metrics
	log     *logrus.Logger
}

func NewHub(m *metrics.Metrics, log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*websocket.Conn]bool),
		metrics: m,
		log:     log,
	}
}

func (h *Hub) Name() string { return "websocket" }

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
	h.metrics.AddWSConnections(1)
}

func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, conn)
}

func (h *Hub) removeLocked(userID int64, conn *websocket.Conn) {
	conns, ok := h.clients[userID]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	conn.Close()
	h.metrics.AddWSConnections(-1)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

// Connections returns how many live connections userID has.
func (h *Hub) Connections(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Serve registers conn and blocks reading from it until the peer goes away.
// Inbound messages are ignored.
func (h *Hub) Serve(userID int64, conn *websocket.Conn) {
	h.Register(userID, conn)
	defer h.Unregister(userID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", userID).Debug("WebSocket closed unexpectedly")
			}
			return
		}
	}
}

// SendToUser writes text to every connection of userID. A user without a
// live connection is not an error.
func (h *Hub) SendToUser(userID int64, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for conn := range h.clients[userID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			h.removeLocked(userID, conn)
		}
	}
	return firstErr
}

// Deliver implements Sink.
func (h *Hub) Deliver(_ context.Context, event domain.Event) error {
	return h.SendToUser(event.UserID, event.Text)
}
