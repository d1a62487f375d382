package room

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/rps-arena/game/engine"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrInvalidRoomID = errors.New("invalid room ID")
)

// Registry maps room IDs to rooms. See the package documentation for its
// ownership rules.
type Registry struct {
	rooms map[string]*Room
	now   func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// ValidID reports whether id is usable as a room identifier
func ValidID(id string) bool {
	return strings.TrimSpace(id) != ""
}

// Create inserts a fresh waiting room with creator as player 1, replacing any
// previous room with the same ID.
func (r *Registry) Create(id string, creator ConnID) (*Room, error) {
	if !ValidID(id) {
		return nil, ErrInvalidRoomID
	}

	rm := r.fresh(id)
	rm.Player1 = creator
	r.rooms[id] = rm
	return rm, nil
}

// Get retrieves a room by ID. IDs are case-sensitive.
func (r *Registry) Get(id string) (*Room, error) {
	rm, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// AssignRole gives conn the first free role in the room. observedGroupSize is
// the broadcast group size seen by the caller after conn joined it.
//
// A missing room is fabricated with conn as player 1. A room with both roles
// empty while conn is alone in the group is stale and gets hard-reset first.
// Once two members are observed, the round restarts with cleared choices.
func (r *Registry) AssignRole(id string, conn ConnID, observedGroupSize int) (*Room, error) {
	if !ValidID(id) {
		return nil, ErrInvalidRoomID
	}

	rm, ok := r.rooms[id]
	if !ok {
		rm = r.fresh(id)
		rm.Player1 = conn
		rm.Status = StatusPlaying
		r.rooms[id] = rm
		return rm, nil
	}

	if observedGroupSize == 1 && rm.Player1 == "" && rm.Player2 == "" {
		rm = r.fresh(id)
		r.rooms[id] = rm
	}

	switch {
	case rm.Holds(conn):
	case rm.Player1 == "":
		rm.Player1 = conn
	case rm.Player2 == "":
		rm.Player2 = conn
	}
	rm.refreshStatus()

	if observedGroupSize >= 2 {
		rm.resetRound()
	}
	return rm, nil
}

// SetChoice records the current round's move for one role
func (r *Registry) SetChoice(id string, isPlayer1 bool, choice engine.Move) error {
	rm, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	if !choice.Valid() {
		return engine.ErrInvalidMove
	}

	if isPlayer1 {
		rm.Choice1 = choice
	} else {
		rm.Choice2 = choice
	}
	return nil
}

// ClearChoices starts a new round without touching roles or scores
func (r *Registry) ClearChoices(id string) error {
	rm, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	rm.resetRound()
	return nil
}

// ApplyOutcome credits the round winner. Draws change nothing.
func (r *Registry) ApplyOutcome(id string, outcome engine.Outcome) error {
	rm, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}

	switch outcome {
	case engine.Player1Wins:
		rm.Score1++
	case engine.Player2Wins:
		rm.Score2++
	}
	return nil
}

// VacateRole frees one role and fully resets the room: both choices and both
// scores go back to zero and the room is waiting again. A new pairing always
// starts 0-0, even for the player who stayed.
func (r *Registry) VacateRole(id string, isPlayer1 bool) error {
	rm, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}

	if isPlayer1 {
		rm.Player1 = ""
	} else {
		rm.Player2 = ""
	}
	rm.resetRound()
	rm.Score1 = 0
	rm.Score2 = 0
	rm.Status = StatusWaiting
	return nil
}

// Delete removes a room
func (r *Registry) Delete(id string) error {
	if _, ok := r.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(r.rooms, id)
	return nil
}

// All returns copies of every room ordered by ID
func (r *Registry) All() []Room {
	result := make([]Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		result = append(result, *rm)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// FindByConn returns every room in which conn holds a role, sorted by ID
func (r *Registry) FindByConn(conn ConnID) []*Room {
	if conn == "" {
		return nil
	}
	var held []*Room
	for _, rm := range r.rooms {
		if rm.Holds(conn) {
			held = append(held, rm)
		}
	}
	sort.Slice(held, func(i, j int) bool {
		return held[i].ID < held[j].ID
	})
	return held
}

// Count returns the number of rooms
func (r *Registry) Count() int {
	return len(r.rooms)
}

func (r *Registry) fresh(id string) *Room {
	return &Room{
		ID:        id,
		Status:    StatusWaiting,
		CreatedAt: r.now(),
	}
}
