package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dom/timetrack/internal/api/middleware"
	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/service"
)

const authErrorMessage = "Wrong username or password"

// SessionCloser drops live connections bound to a session.
type SessionCloser interface {
	DisconnectSession(sessionID string)
}

type AuthHandler struct {
	authService  *service.AuthService
	sessions     SessionCloser
	secureCookie bool
}

func NewAuthHandler(authService *service.AuthService, sessions SessionCloser, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

type LogoutResponse struct {
	Res string `json:"res"`
}

type TicketResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Signup(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			writeMsg(w, http.StatusBadRequest, "User exists")
		case errors.Is(err, domain.ErrInvalidUsername), errors.Is(err, domain.ErrInvalidPassword):
			writeMsg(w, http.StatusBadRequest, err.Error())
		default:
			writeInternal(w, r, err, "signup failed")
		}
		return
	}

	h.startSession(w, r, result.Token)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Login(r.Context(), creds)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			writeInternal(w, r, err, "login failed")
			return
		}
		if isJSONBody(r) {
			writeMsg(w, http.StatusUnauthorized, authErrorMessage)
			return
		}
		http.Redirect(w, r, "/?authError=true", http.StatusFound)
		return
	}

	h.startSession(w, r, result.Token)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if !principal.Authenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.authService.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
		writeInternal(w, r, err, "logout failed")
		return
	}
	h.sessions.DisconnectSession(principal.SessionID)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, LogoutResponse{Res: "success"})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// SocketTicket issues a short-lived token for the WebSocket handshake.
func (h *AuthHandler) SocketTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.authService.IssueSocketTicket(middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeInternal(w, r, err, "issue socket ticket failed")
		return
	}

	writeJSON(w, http.StatusOK, TicketResponse{
		Token:     ticket.Token,
		ExpiresAt: ticket.ExpiresAt.UnixMilli(),
	})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if isJSONBody(r) {
		writeJSON(w, http.StatusOK, SessionResponse{SessionID: token})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// readCredentials accepts a JSON body or an urlencoded form.
func readCredentials(w http.ResponseWriter, r *http.Request) (service.Credentials, bool) {
	if isJSONBody(r) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMsg(w, http.StatusBadRequest, "invalid request body")
			return service.Credentials{}, false
		}
		return service.Credentials{Username: req.Username, Password: req.Password}, true
	}

	if err := r.ParseForm(); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid form body")
		return service.Credentials{}, false
	}
	return service.Credentials{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, true
}
