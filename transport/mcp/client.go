package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tictactoe/game/engine"
	"tictactoe/game/registry"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tic-Tac-Toe Match Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tic-Tac-Toe Match Server - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The server hosts two-player tic-tac-toe matches played over WebSocket.
These tools observe matches; playing requires a WebSocket connection
because the server pushes turn and result notifications to both players.

AVAILABLE TOOLS:
- list_games: List every registered match
- open_games: List matches waiting for a second player
- game_state: Show one match's board, turn, and outcome
- server_health: Check the REST API is up
- game_instructions: Game rules and the WebSocket protocol`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all registered matches with their status and boards",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "open_games",
		Description: "List matches waiting for a second player to join",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleOpenGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board, turn, and outcome of a specific match",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Match identifier",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_health",
		Description: "Check that the match server is reachable",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerHealth)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and the WebSocket protocol description",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
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

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                  `json:"count"`
		Games []registry.MatchInfo `json:"games"`
	}

	err := c.apiCall("GET", "/api/games", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No matches registered."), nil
	}

	result := fmt.Sprintf("Matches (%d):\n\n", response.Count)
	for _, g := range response.Games {
		result += fmt.Sprintf("- %s (status: %s, players: %d, created: %s)\n",
			g.ID, g.Status, g.Players, g.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleOpenGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int      `json:"count"`
		Games []string `json:"games"`
	}

	err := c.apiCall("GET", "/api/games?open=true", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No open matches. Connect over WebSocket and send {\"action\":\"create\",\"game_id\":\"...\"} to start one."), nil
	}

	result := fmt.Sprintf("Open matches (%d), oldest first:\n\n", response.Count)
	for _, id := range response.Games {
		result += fmt.Sprintf("- %s\n", id)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var info registry.MatchInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/games/%s", gameID), nil, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMatchInfo(&info)), nil
}

func (c *Client) handleServerHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var health struct {
		Status      string `json:"status"`
		Games       int    `json:"games"`
		Connections int    `json:"connections"`
	}

	err := c.apiCall("GET", "/api/health", nil, &health)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Status: %s\nMatches: %d\nConnections: %d",
		health.Status, health.Games, health.Connections)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Tic-Tac-Toe Match Server - Instructions

RULES:
Two players alternate placing X and O on a 3x3 board. The creator plays X
and always moves first. Three in a row, column, or diagonal wins; a full
board with no line is a tie.

BOARD CELLS:
Cells are indexed 0-8, row-major:

  0 | 1 | 2
  ---------
  3 | 4 | 5
  ---------
  6 | 7 | 8

PLAYING OVER WEBSOCKET:
Connect to /ws and exchange JSON frames tagged by an "action" field.

  {"action": "new"}                                  list open matches
  {"action": "create", "game_id": "my-game"}         create and wait
  {"action": "join", "game_id": "my-game"}           join as O
  {"action": "move", "game_id": "my-game", "cell": 4} place a marker
  {"action": "close", "game_id": "my-game"}          leave the match

The server pushes "move" frames for every placement, a "finish" frame when
the match is decided or a player leaves, and "error" frames for rejected
requests. Disconnecting mid-match closes the match; the opponent is
notified.

OBSERVING OVER REST:
  GET /api/games            all matches
  GET /api/games?open=true  joinable matches
  GET /api/games/{id}       one match snapshot`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatMatchInfo(info *registry.MatchInfo) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Match: %s\nStatus: %s\nPlayers: %d\nCreated: %s\n\n",
		info.ID, info.Status, info.Players, info.CreatedAt.Format("2006-01-02 15:04:05")))

	b.WriteString(formatBoard(info.Board))

	switch info.Status {
	case engine.StatusInProgress:
		b.WriteString(fmt.Sprintf("\nNext move: %s", info.Turn))
	case engine.StatusWaiting:
		b.WriteString("\nWaiting for a second player.")
	case engine.StatusFinished:
		if info.Tied {
			b.WriteString("\nResult: tie")
		} else if info.Winner != engine.Empty {
			b.WriteString(fmt.Sprintf("\nResult: %s won", info.Winner))
		}
	}

	return b.String()
}

func formatBoard(board engine.Board) string {
	cell := func(i int) string {
		if board[i] == engine.Empty {
			return "."
		}
		return string(board[i])
	}

	var b strings.Builder
	for row := 0; row < 3; row++ {
		base := row * 3
		b.WriteString(fmt.Sprintf(" %s | %s | %s\n", cell(base), cell(base+1), cell(base+2)))
		if row < 2 {
			b.WriteString(" ---------\n")
		}
	}
	return b.String()
}
