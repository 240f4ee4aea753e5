package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/services/fanout"
)

// Conn is the outbound side of one live connection
type Conn interface {
	// Enqueue queues msg without blocking. It reports false if the message
	// was dropped.
	Enqueue(msg model.Message) bool
}

// DisconnectFunc is called when a connection goes away
type DisconnectFunc func(id model.PlayerID)

// Registry tracks live connections by identity
type Registry struct {
	mu           sync.RWMutex
	conns        map[model.PlayerID]Conn
	leaving      map[model.PlayerID]bool
	onDisconnect []DisconnectFunc

	newID   func() model.PlayerID
	metrics *Metrics
	logger  *slog.Logger
}

// Ensure Registry implements Notifier
var _ fanout.Notifier = (*Registry)(nil)

// NewRegistry creates a Registry that assigns random UUIDs
func NewRegistry(metrics *Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		conns:   make(map[model.PlayerID]Conn),
		leaving: make(map[model.PlayerID]bool),
		newID:   func() model.PlayerID { return model.PlayerID(uuid.NewString()) },
		metrics: metrics,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// OnDisconnect registers a cleanup callback. Callbacks run in registration
// order, synchronously, from Disconnect.
func (r *Registry) OnDisconnect(fn DisconnectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDisconnect = append(r.onDisconnect, fn)
}

// Connect registers conn under a fresh identity
func (r *Registry) Connect(conn Conn) model.PlayerID {
	r.mu.Lock()
	id := r.newID()
	for r.conns[id] != nil {
		id = r.newID()
	}
	r.conns[id] = conn
	count := len(r.conns)
	r.mu.Unlock()

	r.metrics.Connects.Add(1)
	r.logger.Info("connection registered",
		slog.String("player_id", string(id)),
		slog.Int("total_connections", count))
	return id
}

// Disconnect runs cleanup callbacks and then removes the connection. The
// connection stays addressable while callbacks run, so replies to events it
// sent before going away are still delivered. Unknown ids are ignored, so
// calling it twice is safe.
func (r *Registry) Disconnect(id model.PlayerID) {
	r.mu.Lock()
	if _, ok := r.conns[id]; !ok || r.leaving[id] {
		r.mu.Unlock()
		return
	}
	r.leaving[id] = true
	callbacks := append([]DisconnectFunc(nil), r.onDisconnect...)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(id)
	}

	r.mu.Lock()
	delete(r.conns, id)
	delete(r.leaving, id)
	count := len(r.conns)
	r.mu.Unlock()

	r.metrics.Disconnects.Add(1)
	r.logger.Info("connection unregistered",
		slog.String("player_id", string(id)),
		slog.Int("total_connections", count))
}

// Send delivers msg to one connection, dropping it if the connection is
// gone or its buffer is full
func (r *Registry) Send(id model.PlayerID, msg model.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	if !ok || !conn.Enqueue(msg) {
		r.metrics.MessagesDropped.Add(1)
		if ok {
			r.logger.Warn("message dropped - client buffer full",
				slog.String("player_id", string(id)),
				slog.String("type", string(msg.Type)))
		}
		return
	}
	r.metrics.MessagesSent.Add(1)
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
