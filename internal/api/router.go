package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/spacetime-relay/internal/api/apierr"
	"github.com/mcoot/spacetime-relay/internal/api/handler"
	"github.com/mcoot/spacetime-relay/internal/api/middleware"
	sharedmw "github.com/mcoot/spacetime-relay/internal/middleware"
	"github.com/mcoot/spacetime-relay/internal/realtime"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Store       storage.LobbyStore
	Connections handler.ConnectionCounter
	Metrics     *realtime.Metrics
	WSHandler   http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	lobbyHandler := handler.NewLobbyHandler(cfg.Store)
	statsHandler := handler.NewStatsHandler(cfg.Store, cfg.Connections, cfg.Metrics)

	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Socket endpoint. Recovery would try to write a JSON body onto a
	// hijacked connection, so only logging wraps it.
	if cfg.WSHandler != nil {
		r.Handle("/ws", loggingMiddleware(cfg.WSHandler)).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/lobbies", lobbyHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/lobbies/{code}", lobbyHandler.Get).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed

	return r
}
