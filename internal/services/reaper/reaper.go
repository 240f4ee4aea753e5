package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/spacetime-relay/internal/dependencies/clock"
	"github.com/mcoot/spacetime-relay/internal/feed"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultRetention = time.Hour
)

// Config holds sweep settings
type Config struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultConfig returns the default sweep configuration
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Retention: DefaultRetention}
}

// Reaper periodically evicts lobbies that have stayed empty past the
// retention window
type Reaper struct {
	storage storage.LobbyStore
	feed    feed.Publisher
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new Reaper
func New(store storage.LobbyStore, publisher feed.Publisher, clk clock.Clock, cfg Config, logger *slog.Logger) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Reaper{
		storage: store,
		feed:    publisher,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "reaper")),
	}
}

// Run sweeps on every interval until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info("reaper started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Duration("retention", r.cfg.Retention))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.SweepOnce(ctx)
		}
	}
}

// SweepOnce removes expired empty lobbies and returns their codes
func (r *Reaper) SweepOnce(ctx context.Context) []model.LobbyCode {
	now := r.clock.Now()
	removed, err := r.storage.SweepExpired(ctx, now, r.cfg.Retention)
	if err != nil {
		r.logger.Error("sweep failed", slog.String("error", err.Error()))
		return nil
	}

	for _, code := range removed {
		r.feed.Publish(ctx, model.Activity{
			Type:      model.ActivityLobbyReaped,
			LobbyCode: code,
			Timestamp: now,
		})
	}
	if len(removed) > 0 {
		r.logger.Info("reaped empty lobbies", slog.Int("count", len(removed)))
	}
	return removed
}
