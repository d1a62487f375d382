package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/rps-arena/game/engine"
	"github.com/wricardo/rps-arena/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// roomList mirrors the GET /api/rooms response
type roomList struct {
	Count int                `json:"count"`
	Rooms []service.RoomInfo `json:"rooms"`
}

// rulesResponse mirrors the GET /api/rules response
type rulesResponse struct {
	Moves []engine.Move `json:"moves"`
	Rules []engine.Rule `json:"rules"`
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, version string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Rock Paper Scissors Arena",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rock Paper Scissors Arena - MCP Interface

This is a read-only observer of a running room server. Players connect over
WebSocket; these tools let you watch rooms and reason about rounds.

AVAILABLE TOOLS:
- list_rooms: List every room with status, players and scores
- get_room: Inspect one room by ID (IDs are case-sensitive)
- game_rules: Show which move beats which
- preview_outcome: Decide a round for two moves without touching any room

Moves of a round in progress are never revealed, only whether each player has chosen.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all rooms with their status, players and scores",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get details of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID to retrieve (case-sensitive)",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Show the moves and which move beats which",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)

	moveSchema := func(player string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "string",
			"enum":        []string{"rock", "paper", "scissors"},
			"description": player + "'s move",
		}
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "preview_outcome",
		Description: "Decide who would win a round for the given moves. Does not affect any room.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"p1_choice": moveSchema("Player 1"),
				"p2_choice": moveSchema("Player 2"),
			},
			Required: []string{"p1_choice", "p2_choice"},
		},
	}, c.handlePreviewOutcome)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list roomList
	if err := c.apiCall(ctx, "GET", "/api/rooms", nil, &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomList(list.Rooms)), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, err := request.RequireString("room_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.RoomInfo
	if err := c.apiCall(ctx, "GET", "/api/rooms/"+url.PathEscape(roomID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomInfo(info)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules rulesResponse
	if err := c.apiCall(ctx, "GET", "/api/rules", nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRules(rules)), nil
}

// handlePreviewOutcome resolves locally; the server has no endpoint that plays a round
func (c *Client) handlePreviewOutcome(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p1, err := parseMoveArg(request, "p1_choice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p2, err := parseMoveArg(request, "p2_choice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOutcome(p1, p2, engine.Resolve(p1, p2))), nil
}

func parseMoveArg(request mcp.CallToolRequest, key string) (engine.Move, error) {
	raw, err := request.RequireString(key)
	if err != nil {
		return engine.NoMove, err
	}
	move, err := engine.ParseMove(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return engine.NoMove, fmt.Errorf("%s: %w", key, err)
	}
	return move, nil
}

func formatRoomList(rooms []service.RoomInfo) string {
	if len(rooms) == 0 {
		return "No rooms"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%d room(s):\n", len(rooms)))
	for _, info := range rooms {
		result.WriteString(fmt.Sprintf("- %s [%s] %d-%d, %d member(s)\n",
			info.RoomID, info.Status, info.P1Score, info.P2Score, info.Members))
	}
	return result.String()
}

func formatRoomInfo(info service.RoomInfo) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("Room: %s\nStatus: %s\nCreated: %s\n",
		info.RoomID, info.Status, info.CreatedAt.Format("2006-01-02 15:04:05")))
	result.WriteString(fmt.Sprintf("Player 1: %s (score %d, %s)\n",
		seat(string(info.Player1ID)), info.P1Score, chosen(info.P1Chosen)))
	result.WriteString(fmt.Sprintf("Player 2: %s (score %d, %s)\n",
		seat(string(info.Player2ID)), info.P2Score, chosen(info.P2Chosen)))
	result.WriteString(fmt.Sprintf("Members: %d\n", info.Members))

	return result.String()
}

func seat(id string) string {
	if id == "" {
		return "empty"
	}
	return id
}

func chosen(done bool) string {
	if done {
		return "has chosen"
	}
	return "waiting for choice"
}

func formatRules(rules rulesResponse) string {
	names := make([]string, 0, len(rules.Moves))
	for _, m := range rules.Moves {
		names = append(names, m.String())
	}

	var result strings.Builder
	result.WriteString("Moves: " + strings.Join(names, ", ") + "\n\n")
	for _, rule := range rules.Rules {
		result.WriteString(fmt.Sprintf("%s beats %s\n", rule.Winner, rule.Loser))
	}
	result.WriteString("\nIdentical moves are a draw. A win adds one point to the winner's score.\n")
	return result.String()
}

func formatOutcome(p1, p2 engine.Move, outcome engine.Outcome) string {
	switch outcome {
	case engine.Player1Wins:
		return fmt.Sprintf("Player 1 wins: %s beats %s", p1, p2)
	case engine.Player2Wins:
		return fmt.Sprintf("Player 2 wins: %s beats %s", p2, p1)
	default:
		return fmt.Sprintf("Draw: both played %s", p1)
	}
}
