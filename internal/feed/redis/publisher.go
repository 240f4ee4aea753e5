package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/spacetime-relay/internal/feed"
	"github.com/mcoot/spacetime-relay/internal/model"
)

// Publisher sends lobby activity to a Redis pub/sub channel. Nothing is
// stored in Redis; subscribers only see activity published while they listen.
type Publisher struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger

	queue   chan model.Activity
	dropped atomic.Int64
	sent    atomic.Int64
}

// Ensure Publisher implements the interface
var _ feed.Publisher = (*Publisher)(nil)

// New connects to Redis and creates a Publisher
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Publisher with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Publisher {
	if cfg.Channel == "" {
		cfg.Channel = activityChannel()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	return &Publisher{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "activity-feed")),
		queue:  make(chan model.Activity, cfg.BufferSize),
	}
}

// Publish queues activity for delivery, dropping it if the buffer is full
func (p *Publisher) Publish(ctx context.Context, activity model.Activity) {
	select {
	case p.queue <- activity:
	default:
		p.dropped.Add(1)
		p.logger.Debug("activity dropped, buffer full",
			slog.String("type", string(activity.Type)),
			slog.String("lobby", string(activity.LobbyCode)))
	}
}

// Run delivers queued activity until ctx is cancelled
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case activity := <-p.queue:
			p.send(ctx, activity)
		}
	}
}

func (p *Publisher) send(ctx context.Context, activity model.Activity) {
	data, err := json.Marshal(activity)
	if err != nil {
		p.logger.Error("failed to encode activity", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.cfg.Channel, data).Err(); err != nil {
		p.logger.Warn("failed to publish activity",
			slog.String("channel", p.cfg.Channel),
			slog.String("error", err.Error()))
		return
	}
	p.sent.Add(1)
}

// Sent returns the number of activities published
func (p *Publisher) Sent() int64 {
	return p.sent.Load()
}

// Dropped returns the number of activities discarded under back-pressure
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes the Redis connection
func (p *Publisher) Close() error {
	return p.client.Close()
}
