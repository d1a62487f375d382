package service

import (
	"fmt"

	"github.com/wricardo/rps-arena/game/engine"
	"github.com/wricardo/rps-arena/game/room"
)

// createRoom registers a room with the sender as player 1. The creator is not
// added to the broadcast group until somebody joins.
func (c *Coordinator) createRoom(ev Event) error {
	roomID, err := decodeRoomID(ev.Data)
	if err != nil {
		return err
	}

	if c.occupied(roomID, ev.Conn) {
		return ErrRoomFull
	}

	if _, err := c.rooms.Create(roomID, ev.Conn); err != nil {
		return fmt.Errorf("create room %s: %w", roomID, err)
	}

	c.log.Info().Str("room", roomID).Str("conn", string(ev.Conn)).Msg("room created")
	c.transport.Emit(ev.Conn, EventRoomCreated, RoomCreated{RoomID: roomID})
	return nil
}

func (c *Coordinator) joinRoom(ev Event) error {
	roomID, err := decodeRoomID(ev.Data)
	if err != nil {
		return err
	}

	rm, err := c.rooms.Get(roomID)
	if err != nil {
		return fmt.Errorf("join room %s: %w", roomID, err)
	}

	if rm.Player1 == ev.Conn {
		c.log.Debug().Str("room", roomID).Msg("creator rejoining own room, ignored")
		return nil
	}

	if rm.Player1 != "" {
		if !c.transport.Connected(rm.Player1) {
			return fmt.Errorf("join room %s: player 1 is gone: %w", roomID, ErrRoomNotFound)
		}
		if !c.transport.IsMember(roomID, rm.Player1) {
			c.transport.Join(roomID, rm.Player1)
		}
	}

	c.transport.Join(roomID, ev.Conn)
	members := c.transport.Members(roomID)
	if len(members) > 2 {
		c.transport.Leave(roomID, ev.Conn)
		return ErrRoomFull
	}

	rm, err = c.rooms.AssignRole(roomID, ev.Conn, len(members))
	if err != nil {
		c.transport.Leave(roomID, ev.Conn)
		return fmt.Errorf("join room %s: %w", roomID, err)
	}

	if len(members) < 2 {
		c.log.Debug().Str("room", roomID).Int("members", len(members)).Msg("waiting for opponent")
		return nil
	}

	// Role parity differs per recipient, so every member gets its own copy
	for _, member := range members {
		c.transport.Emit(member, EventPlayersConnected, PlayersConnected{
			RoomID:    roomID,
			RoomSize:  len(members),
			IsPlayer1: rm.Player1 == member,
			Player1ID: rm.Player1,
			Player2ID: rm.Player2,
		})
	}

	c.log.Info().
		Str("room", roomID).
		Str("player1", string(rm.Player1)).
		Str("player2", string(rm.Player2)).
		Msg("players connected")
	return nil
}

func (c *Coordinator) submitChoice(ev Event, isPlayer1 bool) error {
	roomID, move, err := decodeChoice(ev.Data)
	if err != nil {
		return err
	}

	rm, err := c.rooms.Get(roomID)
	if err != nil {
		return err
	}

	if len(c.transport.Members(roomID)) < 2 {
		return ErrNeedTwoPlayers
	}
	if rm.Player(isPlayer1) != ev.Conn {
		return notPlayerErr(isPlayer1)
	}
	if rm.Player(!isPlayer1) == "" {
		return ErrOpponentNotInRoom
	}
	if rm.Choice(isPlayer1).Valid() {
		return ErrAlreadyChosen
	}

	if err := c.rooms.SetChoice(roomID, isPlayer1, move); err != nil {
		return fmt.Errorf("submit choice in %s: %w", roomID, err)
	}

	c.log.Debug().
		Str("room", roomID).
		Bool("player1", isPlayer1).
		Stringer("choice", move).
		Msg("choice submitted")

	c.transport.Broadcast(roomID, choiceEvent(isPlayer1), ChoiceMade{
		RPSValue: move,
		Score:    rm.Score(isPlayer1),
		P1Score:  rm.Score1,
		P2Score:  rm.Score2,
	}, ev.Conn)

	// Both moves may have been sent before either broadcast reached the other
	// side; echo the earlier one so the sender still sees it.
	if earlier := rm.Choice(!isPlayer1); earlier.Valid() {
		c.transport.Emit(ev.Conn, choiceEvent(!isPlayer1), ChoiceMade{
			RPSValue: earlier,
			Score:    rm.Score(!isPlayer1),
			P1Score:  rm.Score1,
			P2Score:  rm.Score2,
		})
	}

	if rm.BothChosen() {
		c.later(func() { c.resolveRound(roomID) })
	}
	return nil
}

// resolveRound runs after the choice broadcasts have been handed off. A
// vacate may have cleared the round in between; that is not an error.
func (c *Coordinator) resolveRound(roomID string) {
	rm, err := c.rooms.Get(roomID)
	if err != nil || !rm.BothChosen() {
		c.log.Debug().Str("room", roomID).Msg("round no longer complete, skipping resolution")
		return
	}

	outcome := engine.Resolve(rm.Choice1, rm.Choice2)
	if err := c.rooms.ApplyOutcome(roomID, outcome); err != nil {
		c.log.Warn().Err(err).Str("room", roomID).Msg("failed to apply outcome")
		return
	}

	c.log.Info().
		Str("room", roomID).
		Stringer("winner", outcome).
		Stringer("p1", rm.Choice1).
		Stringer("p2", rm.Choice2).
		Int("p1Score", rm.Score1).
		Int("p2Score", rm.Score2).
		Msg("round resolved")

	c.transport.Broadcast(roomID, EventWinner, Winner{
		Winner:   outcome,
		P1Score:  rm.Score1,
		P2Score:  rm.Score2,
		P1Choice: rm.Choice1,
		P2Choice: rm.Choice2,
	}, "")
}

func (c *Coordinator) playAgain(ev Event) error {
	var req PlayAgainRequest
	roomID, err := decodeRoomRequest(ev.Data, &req)
	if err != nil {
		return err
	}

	if err := c.rooms.ClearChoices(roomID); err == nil {
		c.log.Debug().Str("room", roomID).Msg("choices cleared for next round")
	}

	c.transport.Broadcast(roomID, EventPlayAgain, nil, "")
	return nil
}

func (c *Coordinator) exitGame(ev Event) error {
	var req ExitRequest
	roomID, err := decodeRoomRequest(ev.Data, &req)
	if err != nil {
		return err
	}

	rm, getErr := c.rooms.Get(roomID)
	if getErr != nil {
		c.transport.Leave(roomID, ev.Conn)
		return nil
	}

	if !rm.Holds(ev.Conn) {
		if rm.Player(req.Player) != "" {
			return notPlayerErr(req.Player)
		}
		// Holding no seat, the connection only leaves the group
		c.transport.Leave(roomID, ev.Conn)
		return nil
	}

	isPlayer1 := rm.Player1 == ev.Conn
	c.transport.Leave(roomID, ev.Conn)

	if err := c.rooms.VacateRole(roomID, isPlayer1); err != nil {
		return fmt.Errorf("exit room %s: %w", roomID, err)
	}
	c.log.Info().Str("room", roomID).Bool("player1", isPlayer1).Msg("player left room")

	c.releaseRoom(roomID, ev.Conn)
	return nil
}

func (c *Coordinator) disconnect(ev Event) {
	held := c.rooms.FindByConn(ev.Conn)
	if len(held) == 0 {
		c.log.Debug().Str("conn", string(ev.Conn)).Msg("disconnected connection held no role")
		return
	}

	for _, rm := range held {
		roomID := rm.ID
		isPlayer1 := rm.Player1 == ev.Conn
		c.transport.Leave(roomID, ev.Conn)

		if err := c.rooms.VacateRole(roomID, isPlayer1); err != nil {
			c.log.Warn().Err(err).Str("room", roomID).Msg("failed to vacate role")
			continue
		}
		c.log.Info().Str("room", roomID).Bool("player1", isPlayer1).Msg("player disconnected")

		c.releaseRoom(roomID, ev.Conn)
	}
}

// releaseRoom tells whoever is still in the group that their opponent left,
// or deletes the room when nobody is.
func (c *Coordinator) releaseRoom(roomID string, leaver room.ConnID) {
	if len(c.transport.Members(roomID)) > 0 {
		c.transport.Broadcast(roomID, EventOpponentLeft, OpponentLeft{
			Message: MsgOpponentLeft,
			RoomID:  roomID,
		}, leaver)
		return
	}

	if err := c.rooms.Delete(roomID); err == nil {
		c.log.Info().Str("room", roomID).Msg("room empty, deleted")
	}
}

// occupied reports whether anyone other than conn is still in the room,
// either as a group member or as a live seat holder.
func (c *Coordinator) occupied(roomID string, conn room.ConnID) bool {
	for _, member := range c.transport.Members(roomID) {
		if member != conn {
			return true
		}
	}
	rm, err := c.rooms.Get(roomID)
	if err != nil {
		return false
	}
	for _, holder := range []room.ConnID{rm.Player1, rm.Player2} {
		if holder != "" && holder != conn && c.transport.Connected(holder) {
			return true
		}
	}
	return false
}
