package api

import (
	"net/http"

	"github.com/dom/timetrack/internal/api/handlers"
	"github.com/dom/timetrack/internal/api/middleware"
	"github.com/dom/timetrack/internal/config"
	"github.com/dom/timetrack/internal/logging"
	"github.com/dom/timetrack/internal/metrics"
	"github.com/dom/timetrack/internal/service"
	"github.com/dom/timetrack/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)
	r.Use(logging.HTTPMiddleware(log))
	r.Use(metrics.HTTPMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, hub, cfg.CookieSecure)
	timerHandler := handlers.NewTimerHandler(services.Timer, hub)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)
	indexHandler := handlers.NewIndexHandler(wsHandler)
	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimitPerMinute)

	// Everything below knows who the caller is
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(services.Auth))

		// WebSocket endpoints; upgrades must not sit behind a timeout
		r.Get("/", indexHandler.Handle)
		r.Get("/ws", wsHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(cfg.StoreTimeout))

			// Page-style auth routes
			r.With(limiter.Middleware).Post("/signup", authHandler.Signup)
			r.With(limiter.Middleware).Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)

			// JSON API
			r.Route("/api", func(r chi.Router) {
				r.Use(middleware.RequireUser)

				r.Route("/timers", func(r chi.Router) {
					r.Get("/", timerHandler.List)
					r.Post("/", timerHandler.Create)
					r.Post("/{id}/stop", timerHandler.Stop)
				})

				r.Post("/ws/ticket", authHandler.SocketTicket)
			})
		})
	})

	return r
}
