package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/rps-arena/game/engine"
	"github.com/wricardo/rps-arena/game/room"
)

// Inbound event names
const (
	EventCreateRoom    = "createRoom"
	EventJoinRoom      = "joinRoom"
	EventP1Choice      = "p1Choice"
	EventP2Choice      = "p2Choice"
	EventPlayerClicked = "playerClicked"
	EventExitGame      = "exitGame"
	EventDisconnect    = "disconnect"
)

// Outbound event names. p1Choice and p2Choice are also sent back out.
const (
	EventRoomCreated      = "roomCreated"
	EventNotValidToken    = "notValidToken"
	EventRoomFull         = "roomFull"
	EventPlayersConnected = "playersConnected"
	EventWinner           = "winner"
	EventPlayAgain        = "playAgain"
	EventOpponentLeft     = "opponentLeft"
	EventError            = "error"
)

// MsgOpponentLeft is sent to the player who stays behind
const MsgOpponentLeft = "Your opponent has left the room"

// Event is one inbound message from a connection
type Event struct {
	Name string
	Conn room.ConnID
	Data json.RawMessage
}

// ChoiceRequest is the payload of p1Choice and p2Choice
type ChoiceRequest struct {
	RoomID string `json:"roomId"`
	Choice string `json:"rpschoice"`
}

// PlayAgainRequest is the payload of playerClicked
type PlayAgainRequest struct {
	RoomID  string `json:"roomId"`
	Player1 bool   `json:"player1"`
}

// ExitRequest is the payload of exitGame. Player is true for player 1.
type ExitRequest struct {
	RoomID string `json:"roomId"`
	Player bool   `json:"player"`
}

// RoomCreated acknowledges createRoom to its sender
type RoomCreated struct {
	RoomID string `json:"roomId"`
}

// PlayersConnected is sent to each member individually once a room is paired
type PlayersConnected struct {
	RoomID    string      `json:"roomId"`
	RoomSize  int         `json:"roomSize"`
	IsPlayer1 bool        `json:"isPlayer1"`
	Player1ID room.ConnID `json:"player1Id"`
	Player2ID room.ConnID `json:"player2Id"`
}

// ChoiceMade announces a submitted move
type ChoiceMade struct {
	RPSValue engine.Move `json:"rpsValue"`
	Score    int         `json:"score"`
	P1Score  int         `json:"p1Score"`
	P2Score  int         `json:"p2Score"`
}

// Winner closes a round with everything needed to render the finished board
type Winner struct {
	Winner   engine.Outcome `json:"winner"`
	P1Score  int            `json:"p1Score"`
	P2Score  int            `json:"p2Score"`
	P1Choice engine.Move    `json:"p1Choice"`
	P2Choice engine.Move    `json:"p2Choice"`
}

// OpponentLeft tells the remaining member that the pairing is over
type OpponentLeft struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

// RoomInfo is the read-only view of a room exposed to observers. The current
// round's moves are never revealed, only whether they were made.
type RoomInfo struct {
	RoomID    string      `json:"roomId"`
	Status    room.Status `json:"status"`
	Player1ID room.ConnID `json:"player1Id,omitempty"`
	Player2ID room.ConnID `json:"player2Id,omitempty"`
	P1Score   int         `json:"p1Score"`
	P2Score   int         `json:"p2Score"`
	P1Chosen  bool        `json:"p1Chosen"`
	P2Chosen  bool        `json:"p2Chosen"`
	Members   int         `json:"members"`
	CreatedAt time.Time   `json:"createdAt"`
}

func choiceEvent(isPlayer1 bool) string {
	if isPlayer1 {
		return EventP1Choice
	}
	return EventP2Choice
}

// decodeRoomID reads the bare JSON string carried by createRoom and joinRoom
func decodeRoomID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoomID, err)
	}
	id = strings.TrimSpace(id)
	if !room.ValidID(id) {
		return "", ErrInvalidRoomID
	}
	return id, nil
}

// decodeChoice validates a choice payload before any handler logic runs
func decodeChoice(data json.RawMessage) (string, engine.Move, error) {
	var req ChoiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return "", engine.NoMove, fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}

	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" || req.Choice == "" {
		return "", engine.NoMove, ErrInvalidChoice
	}

	move, err := engine.ParseMove(req.Choice)
	if err != nil {
		return "", engine.NoMove, fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}
	return roomID, move, nil
}

// decodeRoomRequest extracts the room ID from playerClicked and exitGame payloads
func decodeRoomRequest(data json.RawMessage, v interface{ roomID() string }) (string, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoomID, err)
	}
	id := strings.TrimSpace(v.roomID())
	if !room.ValidID(id) {
		return "", ErrInvalidRoomID
	}
	return id, nil
}

func (r *PlayAgainRequest) roomID() string { return r.RoomID }
func (r *ExitRequest) roomID() string      { return r.RoomID }

func newRoomInfo(rm room.Room, members int) RoomInfo {
	return RoomInfo{
		RoomID:    rm.ID,
		Status:    rm.Status,
		Player1ID: rm.Player1,
		Player2ID: rm.Player2,
		P1Score:   rm.Score1,
		P2Score:   rm.Score2,
		P1Chosen:  rm.Choice1.Valid(),
		P2Chosen:  rm.Choice2.Valid(),
		Members:   members,
		CreatedAt: rm.CreatedAt,
	}
}
