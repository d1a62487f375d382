package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/wricardo/rps-arena/game/engine"
	"github.com/wricardo/rps-arena/game/service"
	"github.com/wricardo/rps-arena/transport/websocket"
)

// Server represents the HTTP server: read-only room inspection, the WebSocket
// endpoint and optional static assets
type Server struct {
	rooms     service.RoomReader
	hub       *websocket.Hub
	router    *mux.Router
	log       zerolog.Logger
	staticDir string
	started   time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server's request logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// WithStaticDir serves files from dir at the root path
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// NewServer creates a new API server
func NewServer(rooms service.RoomReader, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		rooms:   rooms,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     zerolog.Nop(),
		started: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/rooms", s.handleListRooms).Methods("GET")
	s.router.HandleFunc("/api/rooms/{id}", s.handleGetRoom).Methods("GET")
	s.router.HandleFunc("/api/rules", s.handleRules).Methods("GET")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}

	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Connections int     `json:"connections"`
}

// RoomList is returned by GET /api/rooms
type RoomList struct {
	Count int                `json:"count"`
	Rooms []service.RoomInfo `json:"rooms"`
}

// RulesResponse is returned by GET /api/rules
type RulesResponse struct {
	Moves []engine.Move `json:"moves"`
	Rules []engine.Rule `json:"rules"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.started).Seconds(),
	}
	if s.hub != nil {
		resp.Connections = s.hub.Connections()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.Rooms(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, RoomList{
		Count: len(rooms),
		Rooms: rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["id"]

	info, err := s.rooms.Room(r.Context(), roomID)
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, RulesResponse{
		Moves: engine.Moves,
		Rules: engine.Rules(),
	})
}
