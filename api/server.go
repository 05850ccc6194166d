package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"tictactoe/game/registry"
	"tictactoe/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	registry  *registry.Registry
	hub       *websocket.Hub
	router    *mux.Router
	staticDir string
}

// NewServer creates a new API server. staticDir may be empty to disable the
// static file fallback.
func NewServer(reg *registry.Registry, hub *websocket.Hub, staticDir string) *Server {
	s := &Server{
		registry:  reg,
		hub:       hub,
		router:    mux.NewRouter(),
		staticDir: staticDir,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Match observation
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files for the browser client
	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Match Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("open") == "true" {
		games := s.registry.ListOpen()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"count": len(games),
			"games": games,
		})
		return
	}

	matches := s.registry.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(matches),
		"games": matches,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["id"]

	info, err := s.registry.Get(gameID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	connections := 0
	if s.hub != nil {
		connections = s.hub.Count()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"games":       s.registry.Count(),
		"connections": connections,
	})
}
