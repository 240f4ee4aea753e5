package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/spacetime-relay/internal/api"
	"github.com/mcoot/spacetime-relay/internal/api/request"
	"github.com/mcoot/spacetime-relay/internal/dependencies/clock"
	"github.com/mcoot/spacetime-relay/internal/dependencies/random"
	"github.com/mcoot/spacetime-relay/internal/feed"
	feedredis "github.com/mcoot/spacetime-relay/internal/feed/redis"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/realtime"
	"github.com/mcoot/spacetime-relay/internal/services/lobby"
	"github.com/mcoot/spacetime-relay/internal/services/reaper"
	"github.com/mcoot/spacetime-relay/internal/services/relay"
	"github.com/mcoot/spacetime-relay/internal/storage/memory"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage *memory.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime plumbing
	Metrics    *realtime.Metrics
	Registry   *realtime.Registry
	Hub        *realtime.Hub
	Dispatcher *realtime.Dispatcher
	Endpoint   *realtime.Endpoint
	// Sink hands inbound events to the hub, as connection read pumps do
	Sink realtime.EventSink

	// Services
	LobbyController *lobby.Controller
	RelayController *relay.Controller
	Reaper          *reaper.Reaper
	Feed            feed.Publisher

	// Handler serves the HTTP API and the /ws endpoint
	Handler http.Handler

	redisFeed *feedredis.Publisher
	logger    *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	// MaxPlayers is the lobby capacity; zero uses the default
	MaxPlayers int
	// RespawnDelay is the time between death and respawn; zero uses the default
	RespawnDelay time.Duration
	// Reaper controls the empty lobby sweep; zero fields use defaults
	Reaper reaper.Config

	// AllowedOrigins restricts websocket origins; empty allows any
	AllowedOrigins []string

	// RedisURL enables the Redis activity feed when set
	RedisURL string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var publisher feed.Publisher = feed.Nop{}
	var redisFeed *feedredis.Publisher
	if cfg.RedisURL != "" {
		redisCfg := feedredis.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		p, err := feedredis.New(redisCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect activity feed: %w", err)
		}
		publisher = p
		redisFeed = p
	}

	app := newWithDependencies(cfg, clock.New(), random.New(), publisher, logger)
	app.redisFeed = redisFeed
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg Config, clk clock.Clock, rnd random.Random, publisher feed.Publisher, logger *slog.Logger) *App {
	store := memory.New(memory.Config{MaxPlayers: cfg.MaxPlayers}, clk, rnd, logger)

	metrics := realtime.NewMetrics()
	registry := realtime.NewRegistry(metrics, logger)
	hub := realtime.NewHub(realtime.DefaultTaskBuffer, metrics, logger)

	exec := func(task func()) { hub.Submit(task) }

	lobbyController := lobby.NewController(store, registry, publisher, clk, logger)
	relayController := relay.NewController(store, registry, clk, rnd, exec,
		relay.Config{RespawnDelay: cfg.RespawnDelay}, logger)
	dispatcher := realtime.NewDispatcher(lobbyController, relayController, registry, metrics, logger)

	// Tasks run detached from any request; the hub's lifetime bounds them.
	taskCtx := context.Background()

	registry.OnDisconnect(func(id model.PlayerID) {
		hub.Do(func() { dispatcher.Disconnect(taskCtx, id) })
	})
	var sink realtime.EventSink = func(id model.PlayerID, env request.Envelope) {
		if !hub.Submit(func() { dispatcher.Handle(taskCtx, id, env) }) {
			metrics.EventsDropped.Add(1)
		}
	}
	endpoint := realtime.NewEndpoint(registry, sink, metrics, cfg.AllowedOrigins, logger)

	handler := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Store:       store,
		Connections: registry,
		Metrics:     metrics,
		WSHandler:   endpoint,
	})

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Metrics:         metrics,
		Registry:        registry,
		Hub:             hub,
		Dispatcher:      dispatcher,
		Endpoint:        endpoint,
		Sink:            sink,
		LobbyController: lobbyController,
		RelayController: relayController,
		Reaper:          reaper.New(store, publisher, clk, cfg.Reaper, logger),
		Feed:            publisher,
		Handler:         handler,
		logger:          logger,
	}
}

// Run drives the hub, the reaper and the activity feed until ctx is
// cancelled, then waits for all of them to stop
func (a *App) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Reaper.Run(ctx)
	}()

	if a.redisFeed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.redisFeed.Run(ctx)
		}()
	}

	a.Hub.Run(ctx)
	wg.Wait()
}

// Close releases external connections
func (a *App) Close() error {
	if a.redisFeed != nil {
		return a.redisFeed.Close()
	}
	return nil
}
