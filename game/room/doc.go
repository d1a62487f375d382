// Package room provides the authoritative in-memory room registry.
//
// The room package implements:
//   - Room creation keyed by a caller-chosen identifier
//   - Idempotent player role assignment
//   - Choice slots, score keeping and role vacancy resets
//   - Enumeration for disconnect scanning
//
// Core Types:
//
// Registry owns the mapping from room ID to Room. Room holds the two role
// slots (player 1 and player 2), the current round's choices and the running
// scores. ConnID is a weak reference to a live connection: the registry stores
// it to identify a player but never owns or dereferences the connection.
//
// Concurrency:
//
// Registry is not safe for concurrent use. It is owned by the session
// coordinator's event loop, which is the only place that mutates it. Observers
// on other goroutines must go through the coordinator's snapshot queries.
//
// Usage:
//
//	reg := room.NewRegistry()
//
//	r, err := reg.Create("ABCD1234", creator)
//	if err != nil {
//		return err
//	}
//
//	r, err = reg.AssignRole("ABCD1234", joiner, 2)
//
// Lifecycle:
//
// A room is created waiting with its creator as player 1, becomes playing
// once both roles are held, and drops back to waiting with both scores zeroed
// whenever a role is vacated. Callers delete it once nobody is left.
package room
