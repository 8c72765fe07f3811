package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/logging"
	"github.com/dom/timetrack/internal/metrics"
	"github.com/dom/timetrack/internal/service"
	"github.com/dom/timetrack/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Handle(w, r)
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	ticket := r.URL.Query().Get("token")
	if ticket == "" {
		metrics.WebSocketConnectionsRejected.WithLabelValues("missing_token").Inc()
		writeMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	principal, err := h.authService.ValidateSocketTicket(r.Context(), ticket)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTicket) {
			metrics.WebSocketConnectionsRejected.WithLabelValues("invalid_token").Inc()
			writeMsg(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		metrics.WebSocketConnectionsRejected.WithLabelValues("store_error").Inc()
		writeInternal(w, r, err, "socket ticket lookup failed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, principal.User.ID, principal.SessionID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
