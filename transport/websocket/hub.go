package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/rps-arena/game/room"
	"github.com/wricardo/rps-arena/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Outbound messages buffered per client before it is dropped.
	sendQueueSize = 256

	defaultPingInterval   = 25 * time.Second
	defaultPingTimeout    = 60 * time.Second
	defaultMaxMessageSize = 4096

	// EventConnected is sent once to every new connection with its ID.
	EventConnected = "connected"
)

// Message is the wire envelope used in both directions
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// inbound mirrors Message but keeps data undecoded for the coordinator
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Connected is the payload of EventConnected
type Connected struct {
	ID room.ConnID `json:"id"`
}

// Client is one WebSocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   room.ConnID
}

// Hub tracks live connections and their room groups. It implements
// service.Transport.
type Hub struct {
	log        zerolog.Logger
	dispatcher service.Dispatcher
	upgrader   websocket.Upgrader

	pingInterval   time.Duration
	pingTimeout    time.Duration
	maxMessageSize int64

	mu      sync.RWMutex
	clients map[room.ConnID]*Client
	// Members per room in join order
	groups map[string][]room.ConnID

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the hub's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Hub) {
		h.log = logger
	}
}

// WithHeartbeat sets how often pings are sent and how long a peer may stay
// silent before it is considered gone.
func WithHeartbeat(interval, timeout time.Duration) Option {
	return func(h *Hub) {
		if interval > 0 && timeout > interval {
			h.pingInterval = interval
			h.pingTimeout = timeout
		}
	}
}

// WithMaxMessageSize limits inbound message size in bytes
func WithMaxMessageSize(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

// WithAllowedOrigins restricts which browser origins may connect. An empty
// list or "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = checkOrigin(origins)
	}
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		log:            zerolog.Nop(),
		pingInterval:   defaultPingInterval,
		pingTimeout:    defaultPingTimeout,
		maxMessageSize: defaultMaxMessageSize,
		clients:        make(map[room.ConnID]*Client),
		groups:         make(map[string][]room.ConnID),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(nil),
		},
	}

	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetDispatcher wires inbound events to the coordinator. It must be called
// before the hub serves connections.
func (h *Hub) SetDispatcher(d service.Dispatcher) {
	h.dispatcher = d
}

// Run starts the hub's event loop and blocks until ctx is cancelled, closing
// every remaining connection on the way out.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		id:   room.ConnID(uuid.NewString()),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Connections returns the number of live connections
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Join adds conn to the room's group. Unknown connections are ignored.
func (h *Hub) Join(roomID string, conn room.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; !ok {
		return
	}
	if slices.Contains(h.groups[roomID], conn) {
		return
	}
	h.groups[roomID] = append(h.groups[roomID], conn)
}

// Leave removes conn from the room's group. Empty groups disappear.
func (h *Hub) Leave(roomID string, conn room.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(roomID, conn)
}

// Members lists the room's group in join order
func (h *Hub) Members(roomID string) []room.ConnID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]room.ConnID(nil), h.groups[roomID]...)
}

// IsMember reports whether conn is in the room's group
func (h *Hub) IsMember(roomID string, conn room.ConnID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Contains(h.groups[roomID], conn)
}

// Connected reports whether conn is a live connection
func (h *Hub) Connected(conn room.ConnID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[conn]
	return ok
}

// Emit sends one event to one connection
func (h *Hub) Emit(conn room.ConnID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[conn]; ok {
		h.deliver(client, data)
	}
}

// Broadcast sends one event to every member of the room except one
// connection; an empty except reaches everybody.
func (h *Hub) Broadcast(roomID string, event string, payload any, except room.ConnID) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, member := range h.groups[roomID] {
		if member == except {
			continue
		}
		if client, ok := h.clients[member]; ok {
			h.deliver(client, data)
		}
	}
}

// deliver queues data on the client; callers hold at least the read lock
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// Client's send queue is full; closing the socket ends its read pump,
		// which unregisters it.
		h.log.Warn().Str("conn", string(client.id)).Msg("send queue full, dropping client")
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to marshal websocket message")
		return nil, false
	}
	return data, true
}

// registerClient adds a client and greets it with its ID
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug().Str("conn", string(client.id)).Int("clients", total).Msg("client registered")
	h.Emit(client.id, EventConnected, Connected{ID: client.id})
}

// unregisterClient removes a client from every group, then tells the
// coordinator it is gone.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	for roomID := range h.groups {
		h.leave(roomID, client.id)
	}
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug().Str("conn", string(client.id)).Int("clients", total).Msg("client unregistered")
	h.dispatch(service.Event{Name: service.EventDisconnect, Conn: client.id})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
	}
	h.groups = make(map[string][]room.ConnID)
}

// leave requires the write lock
func (h *Hub) leave(roomID string, conn room.ConnID) {
	members := h.groups[roomID]
	for i, m := range members {
		if m == conn {
			members = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(h.groups, roomID)
		return
	}
	h.groups[roomID] = members
}

func (h *Hub) dispatch(ev service.Event) {
	if h.dispatcher == nil {
		return
	}
	if !h.dispatcher.Dispatch(ev) {
		h.log.Debug().Str("event", ev.Name).Msg("coordinator stopped, event dropped")
	}
}

// readPump pumps messages from the WebSocket connection to the coordinator
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.pingTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.pingTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("conn", string(c.id)).Msg("websocket read error")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
			c.hub.Emit(c.id, service.EventError, "malformed message")
			continue
		}
		// Only the hub may report a disconnect
		if msg.Event == service.EventDisconnect {
			c.hub.Emit(c.id, service.EventError, "reserved event")
			continue
		}

		c.hub.dispatch(service.Event{Name: msg.Event, Conn: c.id, Data: msg.Data})
	}
}

// writePump pumps queued messages to the WebSocket connection, one frame each
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		return origin == "" || slices.Contains(allowed, origin)
	}
}
