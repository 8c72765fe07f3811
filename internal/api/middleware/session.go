package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dom/timetrack/internal/logging"
	"github.com/dom/timetrack/internal/service"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	TokenKey     contextKey = "sessionToken"
)

const (
	SessionCookieName = "sessionId"
	SessionHeaderName = "sessionid"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (service.Principal, error)
}

// TokenFromRequest returns the session token from the cookie, the sessionid
// header or a bearer Authorization header, in that order.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if v := r.Header.Get(SessionHeaderName); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// Session resolves the caller for every request. Unknown tokens leave the
// request anonymous; only a store failure aborts it.
func Session(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logging.FromContext(r.Context()).WithError(err).Error("session lookup failed")
				writeMsg(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			if principal.Authenticated() {
				ctx = context.WithValue(ctx, TokenKey, token)
				ctx = logging.WithContext(ctx, logging.FromContext(ctx).WithField("user", principal.User.Username))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous callers with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetPrincipal(r.Context()).Authenticated() {
			writeMsg(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetPrincipal(ctx context.Context) service.Principal {
	p, _ := ctx.Value(PrincipalKey).(service.Principal)
	return p
}

// GetToken returns the raw token an authenticated request was resolved with.
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
