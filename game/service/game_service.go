package service

import (
	"context"

	"github.com/wricardo/rps-arena/game/room"
)

// Transport is what the coordinator needs from the messaging layer
type Transport interface {
	// Broadcast groups
	Join(roomID string, conn room.ConnID)
	Leave(roomID string, conn room.ConnID)
	Members(roomID string) []room.ConnID
	IsMember(roomID string, conn room.ConnID) bool

	// Connection liveness
	Connected(conn room.ConnID) bool

	// Delivery. A nil payload sends an event without data. Broadcast skips
	// except when it is non-empty.
	Emit(conn room.ConnID, event string, payload any)
	Broadcast(roomID string, event string, payload any, except room.ConnID)
}

// Dispatcher accepts inbound events from the transport
type Dispatcher interface {
	Dispatch(ev Event) bool
}

// RoomReader gives read-only access to room state
type RoomReader interface {
	Rooms(ctx context.Context) ([]RoomInfo, error)
	Room(ctx context.Context, roomID string) (RoomInfo, error)
}
