package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(t *testing.T, eventType string, payload interface{}) *domain.OutboxEvent {
	t.Helper()
	e, err := domain.NewOutboxEvent(eventType, payload)
	require.NoError(t, err)
	return e
}

func TestRooms(t *testing.T) {
	tests := []struct {
		name  string
		event *domain.OutboxEvent
		want  []string
	}{
		{
			name:  "ball drawn goes to the game",
			event: event(t, domain.EventTypeBallDrawn, domain.BallDrawnPayload{GameID: 4, Ball: 12}),
			want:  []string{"game:4"},
		},
		{
			name:  "winner goes to the game and the winner",
			event: event(t, domain.EventTypeBingoWinner, domain.BingoWinnerPayload{GameID: 4, UserID: 9}),
			want:  []string{"game:4", "user:9"},
		},
		{
			name:  "balance stays private",
			event: event(t, domain.EventTypeBalanceUpdated, domain.BalanceUpdatedPayload{UserID: 9}),
			want:  []string{"user:9"},
		},
		{
			name:  "withdrawal status stays private",
			event: event(t, domain.EventTypeWithdrawalStatusUpdated, domain.RequestStatusPayload{UserID: 3, RequestID: 1}),
			want:  []string{"user:3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rooms(tt.event))
		})
	}
}

// serve registers each connection under user:<uid> and game:<gid> from the query
func serve(t *testing.T, hub *Hub) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		uid, _ := strconv.ParseInt(r.URL.Query().Get("uid"), 10, 64)
		gid, _ := strconv.ParseInt(r.URL.Query().Get("gid"), 10, 64)
		c := NewClient(uid, conn)
		hub.Register(c, UserRoom(uid), GameRoom(gid))
		go c.WritePump()
		go c.ReadPump(func() { hub.Unregister(c) })
	}))
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(room) == n }, time.Second, 5*time.Millisecond)
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_PublishRoutesByRoom(t *testing.T) {
	hub := NewHub(logger.NewNop())
	defer hub.Close()
	srv := serve(t, hub)
	defer srv.Close()

	alice := dial(t, srv, "uid=1&gid=10")
	bob := dial(t, srv, "uid=2&gid=10")
	waitFor(t, hub, GameRoom(10), 2)

	require.NoError(t, hub.Publish(context.Background(),
		event(t, domain.EventTypeBalanceUpdated, domain.BalanceUpdatedPayload{UserID: 2})))
	require.NoError(t, hub.Publish(context.Background(),
		event(t, domain.EventTypeBallDrawn, domain.BallDrawnPayload{GameID: 10, Ball: 42, BallsDrawn: []int{42}})))

	first := readFrame(t, alice)
	assert.Equal(t, domain.EventTypeBallDrawn, first.Type)
	ball, _ := first.Data.Int64("ball")
	assert.Equal(t, int64(42), ball)

	assert.Equal(t, domain.EventTypeBalanceUpdated, readFrame(t, bob).Type)
	assert.Equal(t, domain.EventTypeBallDrawn, readFrame(t, bob).Type)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(logger.NewNop())
	defer hub.Close()
	srv := serve(t, hub)
	defer srv.Close()

	conn := dial(t, srv, "uid=5&gid=20")
	waitFor(t, hub, UserRoom(5), 1)

	require.NoError(t, conn.Close())
	waitFor(t, hub, UserRoom(5), 0)
	assert.Equal(t, 0, hub.Subscribers(GameRoom(20)))
}
