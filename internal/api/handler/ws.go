// internal/api/handler/ws.go
package handler

import (
	"net/http"

	"fxwallet/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSHandler upgrades authenticated requests and attaches them to the hub.
type WSHandler struct {
	responder
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *notify.Hub, logger *logrus.Logger) *WSHandler {
	return &WSHandler{
		responder: responder{logger: logger},
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve blocks for the lifetime of the connection.
// GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	h.hub.Serve(userID, conn)
}
