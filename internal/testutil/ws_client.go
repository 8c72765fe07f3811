package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/service"
	"github.com/dom/timetrack/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.TimersMessage
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.TimersMessage, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads frames until the connection fails or the client closes
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.TimersMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

func (c *WSClient) send(v interface{}) {
	c.t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// NewTimer sends a new_timer command
func (c *WSClient) NewTimer(description string) {
	c.t.Helper()
	c.send(websocket.InboundMessage{Type: websocket.MessageTypeNewTimer, Description: description})
}

// StopTimer sends a stop_timer command
func (c *WSClient) StopTimer(id string) {
	c.t.Helper()
	c.send(websocket.InboundMessage{Type: websocket.MessageTypeStopTimer, ID: id})
}

// ExpectTimers waits for the next pushed timer list
func (c *WSClient) ExpectTimers(timeout time.Duration) []service.TimerView {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg == nil {
			c.t.Fatalf("connection closed while waiting for timers")
		}
		return msg.Timers
	case err := <-c.errors:
		c.t.Fatalf("error while waiting for timers: %v", err)
	case <-time.After(timeout):
		c.t.Fatalf("timeout waiting for timers")
	}
	return nil
}

// WaitForTimers reads pushes until match accepts one
func (c *WSClient) WaitForTimers(match func([]service.TimerView) bool, timeout time.Duration) []service.TimerView {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for timers")
			}
			if match(msg.Timers) {
				return msg.Timers
			}
		case <-deadline:
			c.t.Fatalf("timeout waiting for matching timers")
			return nil
		}
	}
}

// ExpectClosed waits for the server to close the connection
func (c *WSClient) ExpectClosed(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
		case <-deadline:
			c.t.Fatalf("timeout waiting for connection to close")
		}
	}
}
