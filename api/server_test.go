package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/rps-arena/game/engine"
	"github.com/wricardo/rps-arena/game/room"
	"github.com/wricardo/rps-arena/game/service"
	"github.com/wricardo/rps-arena/transport/websocket"
)

// MockRoomReader implements service.RoomReader for testing
type MockRoomReader struct {
	RoomsFunc func(ctx context.Context) ([]service.RoomInfo, error)
	RoomFunc  func(ctx context.Context, roomID string) (service.RoomInfo, error)
}

func (m *MockRoomReader) Rooms(ctx context.Context) ([]service.RoomInfo, error) {
	if m.RoomsFunc != nil {
		return m.RoomsFunc(ctx)
	}
	return []service.RoomInfo{}, nil
}

func (m *MockRoomReader) Room(ctx context.Context, roomID string) (service.RoomInfo, error) {
	if m.RoomFunc != nil {
		return m.RoomFunc(ctx, roomID)
	}
	return service.RoomInfo{}, service.ErrRoomNotFound
}

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(&MockRoomReader{}, websocket.NewHub())

	rec := doRequest(t, server, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.GreaterOrEqual(t, health.Uptime, 0.0)
	assert.Zero(t, health.Connections)

	_, err := time.Parse(time.RFC3339, health.Timestamp)
	assert.NoError(t, err)
}

func TestHandleListRooms(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	reader := &MockRoomReader{
		RoomsFunc: func(ctx context.Context) ([]service.RoomInfo, error) {
			return []service.RoomInfo{
				{RoomID: "A", Status: room.StatusWaiting, Player1ID: "p1", CreatedAt: created},
				{RoomID: "B", Status: room.StatusPlaying, Player1ID: "p2", Player2ID: "p3", P1Score: 2, P1Chosen: true, Members: 2, CreatedAt: created},
			}, nil
		},
	}
	server := NewServer(reader, nil)

	rec := doRequest(t, server, "/api/rooms")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[RoomList](t, rec)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, "B", list.Rooms[1].RoomID)
	assert.Equal(t, room.StatusPlaying, list.Rooms[1].Status)
	assert.Equal(t, 2, list.Rooms[1].P1Score)
	assert.True(t, list.Rooms[1].P1Chosen)
}

func TestHandleListRooms_Stopped(t *testing.T) {
	reader := &MockRoomReader{
		RoomsFunc: func(ctx context.Context) ([]service.RoomInfo, error) {
			return nil, service.ErrStopped
		},
	}
	server := NewServer(reader, nil)

	rec := doRequest(t, server, "/api/rooms")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, service.ErrStopped.Error(), decode[map[string]string](t, rec)["error"])
}

func TestHandleGetRoom(t *testing.T) {
	reader := &MockRoomReader{
		RoomFunc: func(ctx context.Context, roomID string) (service.RoomInfo, error) {
			if roomID != "ABCD1234" {
				return service.RoomInfo{}, service.ErrRoomNotFound
			}
			return service.RoomInfo{RoomID: roomID, Status: room.StatusPlaying}, nil
		},
	}
	server := NewServer(reader, nil)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, server, "/api/rooms/ABCD1234")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ABCD1234", decode[service.RoomInfo](t, rec).RoomID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(t, server, "/api/rooms/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "room not found", decode[map[string]string](t, rec)["error"])
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/rooms/ABCD1234", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "method not allowed", decode[map[string]string](t, rec)["error"])
	})
}

func TestHandleRules(t *testing.T) {
	server := NewServer(&MockRoomReader{}, nil)

	rec := doRequest(t, server, "/api/rules")
	require.Equal(t, http.StatusOK, rec.Code)

	rules := decode[RulesResponse](t, rec)
	assert.Equal(t, []engine.Move{engine.Rock, engine.Paper, engine.Scissors}, rules.Moves)
	assert.Contains(t, rules.Rules, engine.Rule{Winner: engine.Rock, Loser: engine.Scissors})
	assert.Contains(t, rules.Rules, engine.Rule{Winner: engine.Scissors, Loser: engine.Paper})
	assert.Contains(t, rules.Rules, engine.Rule{Winner: engine.Paper, Loser: engine.Rock})
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>rps</h1>"), 0o644))

	t.Run("served when configured", func(t *testing.T) {
		server := NewServer(&MockRoomReader{}, nil, WithStaticDir(dir))
		rec := doRequest(t, server, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h1>rps</h1>")
	})

	t.Run("absent otherwise", func(t *testing.T) {
		server := NewServer(&MockRoomReader{}, nil)
		rec := doRequest(t, server, "/")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestRoomsFromCoordinator checks the endpoints against a live coordinator
// and makes sure a pending move is never exposed.
func TestRoomsFromCoordinator(t *testing.T) {
	hub := websocket.NewHub()
	coord := service.NewCoordinator(room.NewRegistry(), hub)
	hub.SetDispatcher(coord)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	raw, _ := json.Marshal("ROOM1")
	require.True(t, coord.Dispatch(service.Event{Name: service.EventCreateRoom, Conn: "creator", Data: raw}))

	server := NewServer(coord, hub)

	require.Eventually(t, func() bool {
		rec := doRequest(t, server, "/api/rooms")
		return rec.Code == http.StatusOK && decode[RoomList](t, rec).Count == 1
	}, time.Second, 10*time.Millisecond)

	rec := doRequest(t, server, "/api/rooms/ROOM1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, field := range []string{`"roomId":"ROOM1"`, `"status":"waiting"`, `"player1Id":"creator"`, `"p1Chosen":false`} {
		assert.True(t, strings.Contains(body, field), "expected %s in %s", field, body)
	}
	assert.NotContains(t, body, "rock")

	rec = doRequest(t, server, "/api/rooms/room1")
	assert.Equal(t, http.StatusNotFound, rec.Code, "room IDs are case-sensitive")
}
