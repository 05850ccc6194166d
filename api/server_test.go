package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/game/protocol"
	"tictactoe/game/registry"
	"tictactoe/transport/websocket"
)

type apiConn string

func (c apiConn) ID() string { return string(c) }

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	hub := websocket.NewHub(reg)
	hub.SetHandler(protocol.NewHandler(reg, hub))
	go hub.Run()

	return NewServer(reg, hub, ""), reg
}

func doRequest(t *testing.T, s *Server, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := doRequest(t, s, "GET", "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["games"])
}

func TestListGamesEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := doRequest(t, s, "GET", "/api/games")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
}

func TestListGames(t *testing.T) {
	s, reg := newTestServer(t)

	require.NoError(t, reg.Create("first", apiConn("a")))
	require.NoError(t, reg.Create("second", apiConn("b")))
	_, err := reg.Join("second", apiConn("c"))
	require.NoError(t, err)

	rec, body := doRequest(t, s, "GET", "/api/games")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	// The open filter hides the started match
	rec, body = doRequest(t, s, "GET", "/api/games?open=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	require.Len(t, body["games"], 1)
	assert.Equal(t, "first", body["games"].([]interface{})[0])
}

func TestGetGame(t *testing.T) {
	s, reg := newTestServer(t)

	require.NoError(t, reg.Create("abc", apiConn("a")))

	rec, body := doRequest(t, s, "GET", "/api/games/abc")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", body["id"])
	assert.Equal(t, "waiting", body["status"])
	assert.Equal(t, float64(1), body["players"])
}

func TestGetGameNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := doRequest(t, s, "GET", "/api/games/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestWebSocketEndpoint(t *testing.T) {
	s, reg := newTestServer(t)

	server := httptest.NewServer(s)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"action":"create","game_id":"ws-game"}`)))

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame protocol.Outbound
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, protocol.ActionCreate, frame.Action)
	assert.Equal(t, []string{"ws-game"}, frame.Games)

	// The channel operation is reflected in the REST view
	info, err := reg.Get("ws-game")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Players)
}
