package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"tictactoe/game/engine"
	"tictactoe/game/registry"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
			"games":  2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	err := client.apiCall("GET", "/api/health", nil, &response)
	if err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	err := client.apiCall("GET", "/api/health", nil, nil)
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "match not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("GET", "/api/games/nope", nil, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 404 response")
	}
	if err.Error() != "match not found" {
		t.Errorf("Expected API error message to surface, got %q", err.Error())
	}
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestHandleOpenGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("open") != "true" {
			t.Errorf("Expected open=true query, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"games": []string{"first", "second"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleOpenGames(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("handleOpenGames failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "first") || !strings.Contains(text, "second") {
		t.Errorf("Expected listing to contain both matches, got:\n%s", text)
	}
}

func TestHandleGameState(t *testing.T) {
	info := registry.MatchInfo{
		ID:     "abc",
		Status: engine.StatusInProgress,
		Board: engine.Board{
			engine.MarkerX, engine.Empty, engine.Empty,
			engine.Empty, engine.MarkerO, engine.Empty,
			engine.Empty, engine.Empty, engine.Empty,
		},
		Turn:      engine.MarkerX,
		Players:   2,
		CreatedAt: time.Now(),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games/abc" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(info)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGameState(context.Background(), toolRequest(map[string]interface{}{
		"game_id": "abc",
	}))
	if err != nil {
		t.Fatalf("handleGameState failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Match: abc") {
		t.Errorf("Expected match header, got:\n%s", text)
	}
	if !strings.Contains(text, " X | . | .") {
		t.Errorf("Expected rendered board, got:\n%s", text)
	}
	if !strings.Contains(text, "Next move: X") {
		t.Errorf("Expected turn indicator, got:\n%s", text)
	}
}

func TestHandleGameStateNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "match not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGameState(context.Background(), toolRequest(map[string]interface{}{
		"game_id": "nope",
	}))
	if err != nil {
		t.Fatalf("handleGameState returned transport error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected an error tool result for a missing match")
	}
}

func TestFormatBoard(t *testing.T) {
	board := engine.Board{
		engine.MarkerX, engine.MarkerO, engine.MarkerX,
		engine.Empty, engine.MarkerO, engine.Empty,
		engine.Empty, engine.Empty, engine.MarkerX,
	}

	rendered := formatBoard(board)

	expected := " X | O | X\n ---------\n . | O | .\n ---------\n . | . | X\n"
	if rendered != expected {
		t.Errorf("Board rendering mismatch:\ngot:\n%s\nwant:\n%s", rendered, expected)
	}
}

func TestFormatMatchInfoFinished(t *testing.T) {
	info := &registry.MatchInfo{
		ID:     "done",
		Status: engine.StatusFinished,
		Winner: engine.MarkerO,
		Tied:   false,
	}

	text := formatMatchInfo(info)
	if !strings.Contains(text, "Result: O won") {
		t.Errorf("Expected winner line, got:\n%s", text)
	}

	tied := &registry.MatchInfo{ID: "even", Status: engine.StatusFinished, Tied: true}
	if !strings.Contains(formatMatchInfo(tied), "Result: tie") {
		t.Errorf("Expected tie line")
	}
}
