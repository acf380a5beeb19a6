package gateway

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Sender delivers outbound frames to a client connection by id. The registry
// is the production implementation; tests substitute a recorder.
type Sender interface {
	Send(connectionID string, frame OutboundFrame) error
}

type clientConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Registry tracks live client sessions and is the sole writer to any client
// socket. Serializing writes per connection keeps frames from interleaving
// when transcript relay, chunk relay, and error paths race.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*clientConn
	logger zerolog.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*clientConn),
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds a connection under its id.
func (r *Registry) Register(connectionID string, conn *websocket.Conn) {
	r.mu.Lock()
	r.conns[connectionID] = &clientConn{conn: conn}
	total := len(r.conns)
	r.mu.Unlock()
	r.logger.Info().Str("connection_id", connectionID).Int("active", total).Msg("client connected")
}

// Unregister removes a connection and closes its socket.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	cc, ok := r.conns[connectionID]
	delete(r.conns, connectionID)
	total := len(r.conns)
	r.mu.Unlock()
	if ok {
		cc.conn.Close()
		r.logger.Info().Str("connection_id", connectionID).Int("active", total).Msg("client disconnected")
	}
}

// Send writes a frame to the identified connection. Unknown ids mean the
// client already disconnected.
func (r *Registry) Send(connectionID string, frame OutboundFrame) error {
	r.mu.RLock()
	cc, ok := r.conns[connectionID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s is not registered", connectionID)
	}

	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()
	if err := cc.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("writing %s frame: %w", frame.Type, err)
	}
	return nil
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
