// Package websocket provides the WebSocket transport for the rock-paper-scissors
// room server.
//
// The websocket package implements:
//   - Connection identity (a fresh ConnID per socket, announced with "connected")
//   - Room broadcast groups with join order preserved
//   - Point-to-point emit and broadcast with an optional excluded member
//   - Heartbeats and disconnect detection
//
// Architecture:
//
// A central Hub owns every connection. Each client has a read pump that
// decodes envelopes and hands them to the coordinator through a
// service.Dispatcher, and a write pump that drains a per-client FIFO queue so
// every recipient sees events in the order they were emitted. A client whose
// queue overflows is dropped.
//
// Message Protocol:
//
// Both directions use the same JSON envelope:
//
//	{"event": "joinRoom", "data": "ABCD1234"}
//	{"event": "p1Choice", "data": {"roomId": "ABCD1234", "rpschoice": "rock"}}
//
// Malformed envelopes are answered with an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	coord := service.NewCoordinator(room.NewRegistry(), hub)
//	hub.SetDispatcher(coord)
//	go hub.Run(ctx)
//	go coord.Run(ctx)
//	http.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects and receives its ID
// 2. Client sends protocol events, receives room events
// 3. On close or heartbeat timeout the connection leaves every group
// 4. The coordinator is then told with a "disconnect" event
package websocket
