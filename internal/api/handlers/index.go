package handlers

import (
	"net/http"

	"github.com/dom/timetrack/internal/api/middleware"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type IndexHandler struct {
	socket http.Handler
}

func NewIndexHandler(socket http.Handler) *IndexHandler {
	return &IndexHandler{socket: socket}
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// IndexResponse is the data a landing page is rendered from.
type IndexResponse struct {
	User      *UserResponse `json:"user"`
	AuthError string        `json:"authError,omitempty"`
}

// Handle serves the landing document, or hands WebSocket upgrades on the
// root path to the socket handler.
func (h *IndexHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if ws.IsWebSocketUpgrade(r) {
		h.socket.ServeHTTP(w, r)
		return
	}

	resp := IndexResponse{}
	if p := middleware.GetPrincipal(r.Context()); p.Authenticated() {
		resp.User = &UserResponse{ID: p.User.ID, Username: p.User.Username}
	}
	if r.URL.Query().Get("authError") == "true" {
		resp.AuthError = authErrorMessage
	}

	writeJSON(w, http.StatusOK, resp)
}
