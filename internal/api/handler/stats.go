package handler

import (
	"net/http"

	"github.com/mcoot/spacetime-relay/internal/api/response"
	"github.com/mcoot/spacetime-relay/internal/realtime"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

// ConnectionCounter reports live socket connections
type ConnectionCounter interface {
	Count() int
}

// StatsHandler serves relay counters
type StatsHandler struct {
	store       storage.LobbyStore
	connections ConnectionCounter
	metrics     *realtime.Metrics
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(store storage.LobbyStore, connections ConnectionCounter, metrics *realtime.Metrics) *StatsHandler {
	return &StatsHandler{store: store, connections: connections, metrics: metrics}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListLobbies(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Stats{
		Connections:     h.connections.Count(),
		Lobbies:         len(summaries),
		MetricsSnapshot: h.metrics.Snapshot(),
	})
}

// Health handles GET /api/v1/health
func Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
