package service

import (
	"errors"

	"github.com/wricardo/rps-arena/game/room"
)

var (
	ErrInvalidRoomID     = room.ErrInvalidRoomID
	ErrRoomNotFound      = room.ErrRoomNotFound
	ErrRoomFull          = errors.New("room is full")
	ErrInvalidChoice     = errors.New("invalid choice")
	ErrNeedTwoPlayers    = errors.New("two players are needed to start")
	ErrNotPlayer1        = errors.New("you are not player 1")
	ErrNotPlayer2        = errors.New("you are not player 2")
	ErrOpponentNotInRoom = errors.New("opponent is not in the room")
	ErrAlreadyChosen     = errors.New("you have already chosen")

	ErrStopped = errors.New("coordinator stopped")
)

// rejections lists the errors that may be reported back to a peer
var rejections = []error{
	ErrInvalidRoomID,
	ErrRoomNotFound,
	ErrRoomFull,
	ErrInvalidChoice,
	ErrNeedTwoPlayers,
	ErrNotPlayer1,
	ErrNotPlayer2,
	ErrOpponentNotInRoom,
	ErrAlreadyChosen,
}

// clientMessage returns the peer-facing text for err, hiding wrapping context
func clientMessage(err error) string {
	for _, known := range rejections {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}

func notPlayerErr(isPlayer1 bool) error {
	if isPlayer1 {
		return ErrNotPlayer1
	}
	return ErrNotPlayer2
}
