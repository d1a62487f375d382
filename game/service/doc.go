// Package service provides the session coordinator for rock-paper-scissors rooms.
//
// The service package implements:
//   - The room protocol state machine (create, join, choose, resolve, replay, exit)
//   - Boundary validation of every inbound payload
//   - Per-recipient fan-out of protocol events
//   - Reconciliation when a peer disconnects mid-session
//   - Read-only snapshots of room state for observers
//
// Core Types:
//
// Coordinator receives inbound Events from connected peers, validates them
// against the room registry, mutates it and decides what to emit and to whom.
// Transport is the narrow view of the messaging layer the coordinator needs:
// broadcast groups, point-to-point and group sends, and liveness checks.
//
// Architecture:
//
// The service layer sits between the transport (WebSocket hub) and the room
// registry plus outcome resolver. Rejections are reported synchronously to the
// offending sender only and never change room state.
//
// Concurrency:
//
// All events for all rooms are handled by one goroutine, Run. Each handler
// runs to completion. Work that must observe the handler's sends first, such
// as resolving a completed round, is queued with later and runs once the
// handler returns, before the next inbound event. HTTP and MCP observers read
// room state through Rooms and Room, which execute inside the same loop.
//
// Usage:
//
//	reg := room.NewRegistry()
//	hub := websocket.NewHub()
//	coord := service.NewCoordinator(reg, hub, service.WithLogger(logger))
//	hub.SetDispatcher(coord)
//
//	go hub.Run(ctx)
//	go coord.Run(ctx)
package service
