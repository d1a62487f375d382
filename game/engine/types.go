package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidMove = errors.New("invalid move")

// Move is a single rock-paper-scissors choice
type Move uint8

const (
	NoMove Move = iota
	Rock
	Paper
	Scissors
)

// Moves lists every playable move in display order
var Moves = []Move{Rock, Paper, Scissors}

var moveNames = map[Move]string{
	Rock:     "rock",
	Paper:    "paper",
	Scissors: "scissors",
}

// ParseMove converts a wire value into a Move. Matching is exact: "Rock" is rejected.
func ParseMove(s string) (Move, error) {
	for m, name := range moveNames {
		if name == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
}

// Valid reports whether m is one of the three playable moves
func (m Move) Valid() bool {
	_, ok := moveNames[m]
	return ok
}

func (m Move) String() string {
	if name, ok := moveNames[m]; ok {
		return name
	}
	return ""
}

// MarshalText encodes the move as its lowercase name; NoMove encodes as "".
func (m Move) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts a playable move name or "" for NoMove.
func (m *Move) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = NoMove
		return nil
	}
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Outcome is the result of one round, from player 1's point of view
type Outcome uint8

const (
	Draw Outcome = iota
	Player1Wins
	Player2Wins
)

var outcomeNames = map[Outcome]string{
	Draw:        "draw",
	Player1Wins: "p1",
	Player2Wins: "p2",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// Decisive reports whether somebody won the round
func (o Outcome) Decisive() bool {
	return o == Player1Wins || o == Player2Wins
}

func (o Outcome) MarshalText() ([]byte, error) {
	name, ok := outcomeNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown outcome %d", o)
	}
	return []byte(name), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for k, name := range outcomeNames {
		if name == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}
