// Package mcp provides a Model Context Protocol server for observing the
// rock-paper-scissors room server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Read-only tools backed by the REST API
//   - A local outcome preview that needs no server state
//
// MCP Tools:
//   - list_rooms: List all rooms with status and scores
//   - get_room: Inspect one room
//   - game_rules: Show the beats-relation
//   - preview_outcome: Decide a round for two moves
//
// No tool creates, joins or plays in a room. Only WebSocket peers drive the
// protocol.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:3000", version)
//	server.ServeStdio(client.GetMCPServer())
package mcp
