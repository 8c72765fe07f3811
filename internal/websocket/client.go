package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	// SendQueueSize bounds the frames buffered for a slow reader.
	SendQueueSize = 16
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    uuid.UUID
	sessionID string
	log       logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, SendQueueSize),
		userID:    userID,
		sessionID: sessionID,
		log:       hub.log.WithField("user_id", userID),
	}
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Close stops the write pump, which sends a close frame and drops the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// trySend queues data without blocking. It reports false when the queue is
// full or the client is closed.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read error")
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Warn("ignoring malformed message")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *InboundMessage) {
	label := string(msg.Type)
	if msg.Type != MessageTypeNewTimer && msg.Type != MessageTypeStopTimer {
		label = "unknown"
	}
	metrics.WebSocketMessagesTotal.WithLabelValues(label).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), c.hub.cfg.StoreTimeout)
	defer cancel()

	switch msg.Type {
	case MessageTypeNewTimer:
		if _, err := c.hub.timers.Create(ctx, c.userID, msg.Description); err != nil {
			c.log.WithError(err).Warn("new_timer failed")
			return
		}

	case MessageTypeStopTimer:
		timerID, err := uuid.Parse(msg.ID)
		if err != nil {
			c.log.WithField("id", msg.ID).Warn("stop_timer with invalid id")
			return
		}
		if _, err := c.hub.timers.Stop(ctx, c.userID, timerID); err != nil {
			if !errors.Is(err, domain.ErrTimerNotFound) {
				c.log.WithError(err).Error("stop_timer failed")
			}
			return
		}

	default:
		c.log.WithField("type", msg.Type).Warn("ignoring unknown message type")
		return
	}

	c.hub.Notify(c.userID)
}
