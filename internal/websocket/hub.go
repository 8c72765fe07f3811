package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/metrics"
	"github.com/dom/timetrack/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TimerService is what the hub needs to render and mutate a user's timers.
type TimerService interface {
	ListAll(ctx context.Context, userID uuid.UUID) ([]service.TimerView, error)
	Create(ctx context.Context, userID uuid.UUID, description string) (*domain.Timer, error)
	Stop(ctx context.Context, userID, timerID uuid.UUID) (*domain.Timer, error)
}

type HubConfig struct {
	BroadcastInterval time.Duration
	StoreTimeout      time.Duration
}

// Hub owns the connection registry. At most one connection is registered
// per user; registering a second one evicts the first.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	disconnect chan string
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	timers     TimerService
	cfg        HubConfig
	log        logrus.FieldLogger
	mu         sync.RWMutex
}

func NewHub(timers TimerService, cfg HubConfig, log logrus.FieldLogger) *Hub {
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = time.Second
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		disconnect: make(chan string),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		timers:     timers,
		cfg:        cfg,
		log:        log.WithField("component", "hub"),
	}
}

// Run owns the registry until ctx is cancelled or Stop is called. It also
// drives the broadcast ticker.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.broadcastLoop(ctx)
	}()

	defer func() {
		cancel()
		wg.Wait()

		h.mu.Lock()
		for userID, client := range h.clients {
			client.Close()
			delete(h.clients, userID)
		}
		metrics.WebSocketConnectionsActive.Set(0)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			if prior, ok := h.clients[client.userID]; ok && prior != client {
				prior.Close()
				metrics.WebSocketEvictions.Inc()
				h.log.WithField("user_id", client.userID).Info("evicted prior connection")
			} else {
				metrics.WebSocketConnectionsActive.Inc()
			}
			h.clients[client.userID] = client
			h.mu.Unlock()

			// First frame goes out immediately rather than on the next tick.
			go h.Notify(client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				metrics.WebSocketConnectionsActive.Dec()
			}
			h.mu.Unlock()
			client.Close()

		case sessionID := <-h.disconnect:
			h.mu.Lock()
			for userID, client := range h.clients {
				if client.sessionID == sessionID {
					delete(h.clients, userID)
					metrics.WebSocketConnectionsActive.Dec()
					client.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// DisconnectSession closes the live connection opened with sessionID, if any.
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.done:
	}
}

// ClientCount reports how many connections are registered.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsConnected reports whether userID currently has a registered connection.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(ctx)
		}
	}
}

// broadcast pushes every registered user its full timer list. Store calls
// share one deadline per tick.
func (h *Hub) broadcast(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.BroadcastTickDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.StoreTimeout)
	defer cancel()

	for _, client := range h.snapshot() {
		if ctx.Err() != nil {
			h.log.Warn("broadcast tick ran out of time")
			return
		}
		h.push(ctx, client)
	}
}

// Notify pushes userID's timers right away, outside the tick.
func (h *Hub) Notify(userID uuid.UUID) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.StoreTimeout)
	defer cancel()
	h.push(ctx, client)
}

func (h *Hub) push(ctx context.Context, client *Client) {
	views, err := h.timers.ListAll(ctx, client.userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", client.userID).Error("failed to load timers for push")
		return
	}

	data, err := encodeTimers(views)
	if err != nil {
		h.log.WithError(err).Error("failed to encode timers")
		return
	}

	if client.trySend(data) {
		metrics.BroadcastFramesSent.Inc()
	} else {
		metrics.BroadcastFramesDropped.Inc()
	}
}
