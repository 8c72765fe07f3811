package logging

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// HTTPMiddleware logs one line per request and attaches a request-scoped
// entry to the request context.
func HTTPMiddleware(base logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = ulid.Make().String()
			}
			ww.Header().Set(RequestIDHeader, reqID)

			entry := base.WithFields(logrus.Fields{
				"req_id":      reqID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			next.ServeHTTP(ww, r.WithContext(WithContext(r.Context(), entry)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry.WithFields(logrus.Fields{
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("http_request")
		})
	}
}
