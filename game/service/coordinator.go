package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/wricardo/rps-arena/game/room"
)

const defaultQueueSize = 256

// Coordinator runs the room protocol
type Coordinator struct {
	rooms     *room.Registry
	transport Transport
	log       zerolog.Logger

	inbound  chan Event
	queries  chan func()
	deferred []func()
	done     chan struct{}
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = logger
	}
}

// WithQueueSize sets how many inbound events may wait for the loop
func WithQueueSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.inbound = make(chan Event, n)
		}
	}
}

// NewCoordinator creates a coordinator over the given registry and transport
func NewCoordinator(rooms *room.Registry, transport Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		rooms:     rooms,
		transport: transport,
		log:       zerolog.Nop(),
		inbound:   make(chan Event, defaultQueueSize),
		queries:   make(chan func()),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes events until ctx is cancelled. It must be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)

	c.log.Info().Msg("coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Int("rooms", c.rooms.Count()).Msg("coordinator stopped")
			return ctx.Err()

		case ev := <-c.inbound:
			c.Handle(ev)

		case query := <-c.queries:
			query()
		}
	}
}

// Dispatch queues an inbound event. It returns false once the loop has stopped.
func (c *Coordinator) Dispatch(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.inbound <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Handle processes one event and every task it deferred
func (c *Coordinator) Handle(ev Event) {
	var err error

	switch ev.Name {
	case EventCreateRoom:
		err = c.createRoom(ev)
	case EventJoinRoom:
		err = c.joinRoom(ev)
	case EventP1Choice:
		err = c.submitChoice(ev, true)
	case EventP2Choice:
		err = c.submitChoice(ev, false)
	case EventPlayerClicked:
		err = c.playAgain(ev)
	case EventExitGame:
		err = c.exitGame(ev)
	case EventDisconnect:
		c.disconnect(ev)
	default:
		c.log.Debug().Str("event", ev.Name).Str("conn", string(ev.Conn)).Msg("ignoring unknown event")
	}

	if err != nil {
		c.reject(ev, err)
	}
	c.runDeferred()
}

// Rooms returns a snapshot of every room
func (c *Coordinator) Rooms(ctx context.Context) ([]RoomInfo, error) {
	var infos []RoomInfo
	err := c.query(ctx, func() {
		all := c.rooms.All()
		infos = make([]RoomInfo, 0, len(all))
		for _, rm := range all {
			infos = append(infos, newRoomInfo(rm, len(c.transport.Members(rm.ID))))
		}
	})
	return infos, err
}

// Room returns a snapshot of one room
func (c *Coordinator) Room(ctx context.Context, roomID string) (RoomInfo, error) {
	var (
		info   RoomInfo
		getErr error
	)
	err := c.query(ctx, func() {
		rm, err := c.rooms.Get(roomID)
		if err != nil {
			getErr = err
			return
		}
		info = newRoomInfo(*rm, len(c.transport.Members(roomID)))
	})
	if err != nil {
		return RoomInfo{}, err
	}
	return info, getErr
}

// query runs fn inside the event loop and waits for it
func (c *Coordinator) query(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		fn()
		close(finished)
	}

	select {
	case c.queries <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// later queues fn to run after the current handler returns
func (c *Coordinator) later(fn func()) {
	c.deferred = append(c.deferred, fn)
}

func (c *Coordinator) runDeferred() {
	for len(c.deferred) > 0 {
		fn := c.deferred[0]
		c.deferred = c.deferred[1:]
		fn()
	}
}

// reject reports err to the sender of ev only
func (c *Coordinator) reject(ev Event, err error) {
	c.log.Debug().Err(err).Str("event", ev.Name).Str("conn", string(ev.Conn)).Msg("event rejected")

	switch {
	case errors.Is(err, ErrRoomFull):
		c.transport.Emit(ev.Conn, EventRoomFull, nil)
	case ev.Name == EventJoinRoom && (errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrInvalidRoomID)):
		c.transport.Emit(ev.Conn, EventNotValidToken, nil)
	default:
		c.transport.Emit(ev.Conn, EventError, clientMessage(err))
	}
}
