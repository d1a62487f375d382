package room

import (
	"time"

	"github.com/wricardo/rps-arena/game/engine"
)

// ConnID identifies a live connection. The empty value means "no connection".
type ConnID string

// Status describes whether a room has both roles filled
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

// Room is the state of one pairing
type Room struct {
	ID        string
	Player1   ConnID
	Player2   ConnID
	Choice1   engine.Move
	Choice2   engine.Move
	Score1    int
	Score2    int
	Status    Status
	CreatedAt time.Time
}

// Holds reports whether conn occupies either role
func (r *Room) Holds(conn ConnID) bool {
	return conn != "" && (r.Player1 == conn || r.Player2 == conn)
}

// Player returns the connection holding the given role
func (r *Room) Player(isPlayer1 bool) ConnID {
	if isPlayer1 {
		return r.Player1
	}
	return r.Player2
}

// Choice returns the current round's choice for the given role
func (r *Room) Choice(isPlayer1 bool) engine.Move {
	if isPlayer1 {
		return r.Choice1
	}
	return r.Choice2
}

// Score returns the running score for the given role
func (r *Room) Score(isPlayer1 bool) int {
	if isPlayer1 {
		return r.Score1
	}
	return r.Score2
}

// BothChosen reports whether the current round is complete
func (r *Room) BothChosen() bool {
	return r.Choice1.Valid() && r.Choice2.Valid()
}

func (r *Room) resetRound() {
	r.Choice1 = engine.NoMove
	r.Choice2 = engine.NoMove
}

func (r *Room) refreshStatus() {
	if r.Player1 != "" && r.Player2 != "" {
		r.Status = StatusPlaying
		return
	}
	r.Status = StatusWaiting
}
