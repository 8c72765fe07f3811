package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/timetrack/internal/api"
	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/config"
	"github.com/dom/timetrack/internal/logging"
	"github.com/dom/timetrack/internal/repository/backend"
	"github.com/dom/timetrack/internal/service"
	"github.com/dom/timetrack/internal/websocket"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Pretty: cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := backend.Open(ctx, cfg.DatabaseURI, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer store.Close()
	log.WithField("backend", store.Kind).Info("store ready")

	// Initialize services
	services := service.NewServices(store.Repos, cfg, clock.NewRealClock())

	// Initialize WebSocket hub
	hub := websocket.NewHub(services.Timer, websocket.HubConfig{
		BroadcastInterval: cfg.BroadcastInterval,
		StoreTimeout:      cfg.StoreTimeout,
	}, log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Initialize router
	router := api.NewRouter(services, hub, cfg, log)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	// Hijacked sockets are not tracked by Shutdown; the hub closes them.
	stopHub()
	hub.Stop()

	log.Info("server stopped")
}
