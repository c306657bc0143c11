// Package server streams a growing mesh to browser viewers over websockets
// and accepts parameter changes from them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"meshgrowth/core"
	"meshgrowth/simulation"
)

// Server drives one simulation and broadcasts its mesh to every client
type Server struct {
	newSystem simulation.Factory
	upgrader  websocket.Upgrader
	interval  time.Duration
	logger    *zap.Logger

	simMutex      sync.Mutex // guards system, params, subiterations and paused
	system        *simulation.System
	params        simulation.Params
	subiterations int
	paused        bool

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInterval sets the time between simulation ticks
func WithInterval(interval time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSubiterations sets the number of Update calls per tick
func WithSubiterations(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.subiterations = n
		}
	}
}

// New creates a server and its initial simulation
func New(newSystem simulation.Factory, params simulation.Params, opts ...Option) (*Server, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		newSystem: newSystem,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		interval:      100 * time.Millisecond,
		logger:        zap.NewNop(),
		params:        params,
		subiterations: 1,
		clients:       make(map[*websocket.Conn]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	system, err := newSystem()
	if err != nil {
		return nil, fmt.Errorf("create simulation: %w", err)
	}
	s.system = system
	return s, nil
}

// Handler returns the HTTP routes: /ws for the websocket stream and
// /snapshot for a one-off JSON mesh.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	return mux
}

// Run ticks the simulation until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	lastPrintTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return ctx.Err()
		case <-ticker.C:
		}

		frameStart := time.Now()
		if err := s.Tick(); err != nil {
			s.logger.Error("simulation tick failed", zap.Error(err))
		}

		if totalTime := time.Since(frameStart); totalTime > s.interval {
			s.logger.Warn("slow frame", zap.Duration("total", totalTime), zap.Duration("interval", s.interval))
		}
		if time.Since(lastPrintTime) > 5*time.Second {
			lastPrintTime = time.Now()
			stats := s.Stats()
			s.logger.Info("simulation progress",
				zap.Int("step", stats.Step),
				zap.Int("vertices", stats.Vertices),
				zap.Int("faces", stats.Faces),
				zap.Int("clients", s.clientCount()))
		}
	}
}

// Tick runs the configured number of sub-iterations, unless paused, and
// broadcasts the resulting mesh.
func (s *Server) Tick() error {
	s.simMutex.Lock()
	var err error
	if !s.paused {
		for i := 0; i < s.subiterations && err == nil; i++ {
			err = s.system.Update(s.params)
		}
	}
	data := s.meshDataLocked()
	s.simMutex.Unlock()

	s.broadcast(data)
	return err
}

// Reset rebuilds the simulation from its seed and broadcasts it
func (s *Server) Reset() error {
	system, err := s.newSystem()
	if err != nil {
		return fmt.Errorf("reset simulation: %w", err)
	}

	s.simMutex.Lock()
	s.system = system
	data := s.meshDataLocked()
	s.simMutex.Unlock()

	s.broadcast(data)
	return nil
}

// Stats reports the current simulation counters
func (s *Server) Stats() simulation.Stats {
	s.simMutex.Lock()
	defer s.simMutex.Unlock()
	return s.system.Stats()
}

// MeshData returns the current display snapshot
func (s *Server) MeshData() core.MeshData {
	s.simMutex.Lock()
	defer s.simMutex.Unlock()
	return s.meshDataLocked()
}

func (s *Server) meshDataLocked() core.MeshData {
	snap := s.system.Snapshot()
	data := core.NewMeshData(s.system.Stats().Step, snap.Positions, snap.Faces)
	data.Growing = s.params.Grow
	data.Paused = s.paused
	data.MaxVertex = s.params.MaxVertexCount
	return data
}

func (s *Server) status() StatusMessage {
	s.simMutex.Lock()
	defer s.simMutex.Unlock()
	return StatusMessage{
		Type:          MessageStatus,
		Params:        s.params,
		Subiterations: s.subiterations,
		Paused:        s.paused,
		Stats:         s.system.Stats(),
	}
}

// apply handles one control message. It returns the reply for the sender,
// or nil when the change is announced by a broadcast.
func (s *Server) apply(msg ControlMessage) (any, error) {
	switch msg.Type {
	case MessageParams:
		if msg.Params == nil {
			return nil, errors.New("params message without params")
		}
		s.simMutex.Lock()
		params, subiterations := msg.Params.apply(s.params, s.subiterations)
		if err := params.Validate(); err != nil {
			s.simMutex.Unlock()
			return nil, err
		}
		if subiterations < 1 {
			s.simMutex.Unlock()
			return nil, fmt.Errorf("subiterations must be at least 1, got %d", subiterations)
		}
		s.params = params
		s.subiterations = subiterations
		s.simMutex.Unlock()
		s.logger.Info("parameters changed", zap.Any("params", params), zap.Int("subiterations", subiterations))
		return s.status(), nil

	case MessagePause, MessageResume:
		s.simMutex.Lock()
		s.paused = msg.Type == MessagePause
		s.simMutex.Unlock()
		return s.status(), nil

	case MessageReset:
		if err := s.Reset(); err != nil {
			return nil, err
		}
		s.logger.Info("simulation reset")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown message type %q", msg.Type)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.MeshData()); err != nil {
		s.logger.Warn("snapshot write error", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.clientsMutex.Lock()
	s.clients[conn] = connMutex
	s.clientsMutex.Unlock()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
		s.logger.Info("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()
	s.logger.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Send initial mesh data
	s.send(conn, connMutex, s.MeshData())

	// Handle incoming messages (parameter changes, reset, pause)
	for {
		var msg ControlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		reply, err := s.apply(msg)
		if err != nil {
			s.send(conn, connMutex, ErrorMessage{Type: MessageError, Message: err.Error()})
			continue
		}
		if reply != nil {
			s.send(conn, connMutex, reply)
		}
	}
}

func (s *Server) send(conn *websocket.Conn, mutex *sync.Mutex, v any) {
	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Warn("websocket write error", zap.Error(err))
	}
}

func (s *Server) broadcast(data core.MeshData) {
	s.clientsMutex.RLock()
	clientsToRemove := []*websocket.Conn{}
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteJSON(data)
		mutex.Unlock()
		if err != nil {
			s.logger.Warn("websocket write error", zap.Error(err))
			client.Close()
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.clientsMutex.RUnlock()

	// Remove failed clients
	if len(clientsToRemove) > 0 {
		s.clientsMutex.Lock()
		for _, client := range clientsToRemove {
			delete(s.clients, client)
		}
		s.clientsMutex.Unlock()
	}
}

func (s *Server) clientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

func (s *Server) closeClients() {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	for client, mutex := range s.clients {
		mutex.Lock()
		client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		mutex.Unlock()
		client.Close()
	}
}
