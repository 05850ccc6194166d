// Package mcp exposes the match server to MCP clients.
//
// The mcp package implements:
//   - A thin MCP client that proxies all requests to the REST API
//   - Observational tools over the match registry
//   - Text rendering of boards and match listings
//
// Tools:
//   - list_games: List every registered match with status and board
//   - open_games: List joinable match identifiers
//   - game_state: Render one match's board, turn, and outcome
//   - server_health: Probe the REST API
//   - game_instructions: Describe the rules and the WebSocket protocol
//
// The MCP surface is read-only. Moves, joins, and closes require the
// persistent WebSocket channel so the server can arbitrate races and notify
// the affected participants; a request/response transport cannot carry those
// notifications.
package mcp
