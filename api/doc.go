// Package api provides the HTTP surface of the match server.
//
// The api package implements:
//   - Read-only REST endpoints over the match registry
//   - WebSocket upgrade handling for the game protocol
//   - Static file serving for the browser client
//
// Endpoints:
//
// Match Observation:
//   - GET /api/health - Liveness probe
//   - GET /api/games - List all matches (?open=true for joinable only)
//   - GET /api/games/{id} - Snapshot of one match
//
// WebSocket:
//   - GET /ws - Upgrade to the bidirectional game channel
//
// Request/Response Format:
//
// All REST endpoints return JSON. Matches are observed, never mutated, over
// HTTP; every state change flows through the WebSocket protocol so the
// registry stays the single arbiter of turn order and join races.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
