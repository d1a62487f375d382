package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/rps-arena/game/config"
	"github.com/wricardo/rps-arena/game/service"
	"github.com/wricardo/rps-arena/transport/websocket"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Rock Paper Scissors Arena" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestEnvFileArg(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{nil, ".env"},
		{[]string{"serve", "--port", "1"}, ".env"},
		{[]string{"--env-file", "prod.env", "serve"}, "prod.env"},
		{[]string{"--env-file=local.env"}, "local.env"},
		{[]string{"--env-file"}, ".env"},
	}

	for _, tt := range tests {
		if got := envFileArg(tt.args); got != tt.expected {
			t.Errorf("envFileArg(%v) = %s, expected %s", tt.args, got, tt.expected)
		}
	}
}

func resolveConfig(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()

	var (
		cfg    config.Config
		cfgErr error
	)
	cmd := newCommand()
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		cfg, cfgErr = configFromCommand(c)
		return nil
	}
	if err := cmd.Run(context.Background(), append([]string{"rps-arena"}, args...)); err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	return cfg, cfgErr
}

func TestConfigFromCommand(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := resolveConfig(t)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Port != 3000 || cfg.PingInterval != 25*time.Second || cfg.PingTimeout != 60*time.Second {
			t.Errorf("Unexpected defaults %+v", cfg)
		}
	})

	t.Run("flags", func(t *testing.T) {
		cfg, err := resolveConfig(t, "--port", "4000", "--cors-origin", "http://a.test, http://b.test", "--ping-interval", "5s", "--ping-timeout", "20s")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Port != 4000 {
			t.Errorf("Expected port 4000, got %d", cfg.Port)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
			t.Errorf("Unexpected origins %v", cfg.CORSOrigins)
		}
		if cfg.PingInterval != 5*time.Second || cfg.PingTimeout != 20*time.Second {
			t.Errorf("Unexpected heartbeat %v/%v", cfg.PingInterval, cfg.PingTimeout)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("PORT", "5050")
		t.Setenv("STATIC_DIR", "./public")
		cfg, err := resolveConfig(t)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Port != 5050 || cfg.StaticDir != "./public" {
			t.Errorf("Environment not applied: %+v", cfg)
		}
	})

	t.Run("invalid heartbeat", func(t *testing.T) {
		_, err := resolveConfig(t, "--ping-interval", "1m", "--ping-timeout", "30s")
		if err == nil {
			t.Error("Expected validation error")
		}
	})
}

// peer is a test WebSocket client speaking the game envelope
type peer struct {
	t    *testing.T
	conn *gorilla.Conn
	id   string
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialPeer(t *testing.T, url string) *peer {
	t.Helper()

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	p := &peer{t: t, conn: conn}
	var hello websocket.Connected
	p.expect(websocket.EventConnected, &hello)
	p.id = string(hello.ID)
	return p
}

func (p *peer) send(event string, data any) {
	p.t.Helper()
	if err := p.conn.WriteJSON(map[string]any{"event": event, "data": data}); err != nil {
		p.t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// expect reads the next message, requires its event name and decodes its data
func (p *peer) expect(event string, v any) {
	p.t.Helper()

	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg envelope
	if err := p.conn.ReadJSON(&msg); err != nil {
		p.t.Fatalf("Failed to read %s: %v", event, err)
	}
	if msg.Event != event {
		p.t.Fatalf("Expected %s, got %s (%s)", event, msg.Event, msg.Data)
	}
	if v != nil {
		if err := json.Unmarshal(msg.Data, v); err != nil {
			p.t.Fatalf("Failed to decode %s: %v", event, err)
		}
	}
}

func startApp(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	a := newApp(config.Default(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.coord.Run(ctx)
	go a.hub.Run(ctx)

	server := httptest.NewServer(a.handler)
	t.Cleanup(server.Close)
	return server, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestGameOverWebSocket(t *testing.T) {
	server, wsURL := startApp(t)

	alice := dialPeer(t, wsURL)
	bob := dialPeer(t, wsURL)

	alice.send(service.EventCreateRoom, "ABCD1234")
	var created service.RoomCreated
	alice.expect(service.EventRoomCreated, &created)
	if created.RoomID != "ABCD1234" {
		t.Fatalf("Unexpected room %s", created.RoomID)
	}

	bob.send(service.EventJoinRoom, "ABCD1234")
	var forAlice, forBob struct {
		IsPlayer1 bool `json:"isPlayer1"`
		RoomSize  int  `json:"roomSize"`
	}
	alice.expect(service.EventPlayersConnected, &forAlice)
	bob.expect(service.EventPlayersConnected, &forBob)
	if !forAlice.IsPlayer1 || forBob.IsPlayer1 || forAlice.RoomSize != 2 {
		t.Fatalf("Unexpected roles alice=%+v bob=%+v", forAlice, forBob)
	}

	alice.send(service.EventP1Choice, map[string]string{"roomId": "ABCD1234", "rpschoice": "rock"})
	bob.expect(service.EventP1Choice, nil)

	bob.send(service.EventP2Choice, map[string]string{"roomId": "ABCD1234", "rpschoice": "scissors"})
	alice.expect(service.EventP2Choice, nil)
	bob.expect(service.EventP1Choice, nil) // echo of the earlier move

	var result struct {
		Winner   string `json:"winner"`
		P1Score  int    `json:"p1Score"`
		P2Score  int    `json:"p2Score"`
		P1Choice string `json:"p1Choice"`
		P2Choice string `json:"p2Choice"`
	}
	for _, p := range []*peer{alice, bob} {
		p.expect(service.EventWinner, &result)
		if result.Winner != "p1" || result.P1Score != 1 || result.P2Score != 0 {
			t.Errorf("Unexpected result %+v", result)
		}
		if result.P1Choice != "rock" || result.P2Choice != "scissors" {
			t.Errorf("Unexpected choices %+v", result)
		}
	}

	// The REST view shows the score but not the moves
	resp, err := http.Get(server.URL + "/api/rooms/ABCD1234")
	if err != nil {
		t.Fatalf("GET room failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var info service.RoomInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("Failed to decode room: %v", err)
	}
	if info.P1Score != 1 || info.Members != 2 || !info.P1Chosen || !info.P2Chosen {
		t.Errorf("Unexpected room view %+v", info)
	}
	if strings.Contains(string(body), "rock") || strings.Contains(string(body), "scissors") {
		t.Errorf("Room view leaks moves: %s", body)
	}

	// Dropping bob leaves alice alone with a reset room
	bob.conn.Close()
	var left service.OpponentLeft
	alice.expect(service.EventOpponentLeft, &left)
	if left.Message != service.MsgOpponentLeft || left.RoomID != "ABCD1234" {
		t.Errorf("Unexpected opponentLeft %+v", left)
	}
}

func TestUnknownRoomOverWebSocket(t *testing.T) {
	_, wsURL := startApp(t)

	p := dialPeer(t, wsURL)
	p.send(service.EventJoinRoom, "NOPE9999")
	p.expect(service.EventNotValidToken, nil)

	p.send(service.EventP1Choice, map[string]string{"roomId": "NOPE9999", "rpschoice": "lizard"})
	var msg string
	p.expect(service.EventError, &msg)
	if msg != service.ErrInvalidChoice.Error() {
		t.Errorf("Expected %q, got %q", service.ErrInvalidChoice.Error(), msg)
	}
}
