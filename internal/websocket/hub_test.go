package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/logging"
	"github.com/dom/timetrack/internal/repository/memory"
	"github.com/dom/timetrack/internal/service"
	"github.com/dom/timetrack/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubFixture struct {
	hub    *websocket.Hub
	timers *service.TimerService
	server *httptest.Server
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	timers := service.NewTimerService(memory.NewTimerRepository(), clk)
	hub := websocket.NewHub(timers, websocket.HubConfig{
		BroadcastInterval: 20 * time.Millisecond,
		StoreTimeout:      time.Second,
	}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := gorillaWS.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := uuid.MustParse(r.URL.Query().Get("user"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := websocket.NewClient(hub, conn, userID, r.URL.Query().Get("session"))
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		hub.Stop()
	})

	return &hubFixture{hub: hub, timers: timers, server: server}
}

func (f *hubFixture) dial(t *testing.T, userID uuid.UUID, sessionID string) *gorillaWS.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?user=" + userID.String() + "&session=" + sessionID
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return f.hub.IsConnected(userID) }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readTimers(t *testing.T, conn *gorillaWS.Conn) websocket.TimersMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg websocket.TimersMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_BroadcastsOnlyOwnTimers(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	aliceTimer, err := f.timers.Create(ctx, alice, "alice work")
	require.NoError(t, err)
	bobTimer, err := f.timers.Create(ctx, bob, "bob work")
	require.NoError(t, err)
	_, err = f.timers.Stop(ctx, bob, bobTimer.ID)
	require.NoError(t, err)

	aliceConn := f.dial(t, alice, "s1")
	bobConn := f.dial(t, bob, "s2")

	// Several ticks, each a full snapshot of the connection's own timers.
	for i := 0; i < 3; i++ {
		got := readTimers(t, aliceConn)
		require.Len(t, got.Timers, 1)
		assert.Equal(t, aliceTimer.ID, got.Timers[0].ID)
		assert.True(t, got.Timers[0].IsActive)

		got = readTimers(t, bobConn)
		require.Len(t, got.Timers, 1)
		assert.Equal(t, bobTimer.ID, got.Timers[0].ID)
		assert.False(t, got.Timers[0].IsActive)
		require.NotNil(t, got.Timers[0].Duration)
	}
}

func TestHub_EmptyUserGetsEmptyList(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t, uuid.New(), "s1")

	_, data, err := func() (int, []byte, error) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		return conn.ReadMessage()
	}()
	require.NoError(t, err)
	assert.JSONEq(t, `{"timers":[]}`, string(data))
}

func TestHub_SecondConnectionEvictsFirst(t *testing.T) {
	f := newHubFixture(t)
	userID := uuid.New()

	first := f.dial(t, userID, "s1")
	second := f.dial(t, userID, "s2")

	// The first connection is closed by the server.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	var readErr error
	for readErr == nil {
		_, _, readErr = first.ReadMessage()
	}
	var closeErr *gorillaWS.CloseError
	assert.ErrorAs(t, readErr, &closeErr)

	assert.Equal(t, 1, f.hub.ClientCount())
	readTimers(t, second)
}

func TestHub_InboundCommands(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	conn := f.dial(t, userID, "s1")

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":        "new_timer",
		"description": "from socket",
		"userId":      uuid.NewString(),
	}))

	require.Eventually(t, func() bool {
		views, err := f.timers.ListAll(ctx, userID)
		return err == nil && len(views) == 1
	}, 2*time.Second, 10*time.Millisecond)

	views, err := f.timers.ListAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "from socket", views[0].Description)

	// Malformed and unknown frames are ignored without dropping the socket.
	require.NoError(t, conn.WriteMessage(gorillaWS.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type": "stop_timer",
		"id":   views[0].ID.String(),
	}))

	require.Eventually(t, func() bool {
		views, err := f.timers.ListAll(ctx, userID)
		return err == nil && len(views) == 1 && !views[0].IsActive
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, f.hub.IsConnected(userID))
}

func TestHub_DisconnectSession(t *testing.T) {
	f := newHubFixture(t)
	alice, bob := uuid.New(), uuid.New()

	f.dial(t, alice, "alice-session")
	f.dial(t, bob, "bob-session")

	f.hub.DisconnectSession("alice-session")

	require.Eventually(t, func() bool { return !f.hub.IsConnected(alice) }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, f.hub.IsConnected(bob))
}
