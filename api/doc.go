// Package api provides the HTTP surface of the rock-paper-scissors room server.
//
// The api package implements:
//   - A health check
//   - Read-only room inspection endpoints
//   - The rules table
//   - WebSocket upgrade handling
//   - Optional static file serving
//
// Endpoints:
//
//   - GET /health - {status, timestamp, uptime, connections}
//   - GET /api/rooms - {count, rooms} ordered by room ID
//   - GET /api/rooms/{id} - one room, 404 when unknown
//   - GET /api/rules - the moves and which move beats which
//   - GET /ws - WebSocket upgrade into the hub
//
// Room views never include the moves of a round in progress, only whether
// each player has chosen. Nothing here mutates a room; peers drive the game
// over the WebSocket.
//
// Error Handling:
//
// Errors are returned as JSON objects with an "error" field:
//
//	{"error": "room not found"}
//
// Usage:
//
//	server := api.NewServer(coord, hub, api.WithStaticDir("./static"))
//	http.ListenAndServe(":3000", server)
package api
