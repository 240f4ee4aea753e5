package redis

import "time"

// Config holds Redis connection and feed settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Channel is the pub/sub channel activity is published on
	Channel string

	// BufferSize bounds activity waiting to be published
	BufferSize int

	// PublishTimeout bounds a single PUBLISH round trip
	PublishTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the activity feed
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       4,
		MinIdleConns:   1,
		Channel:        activityChannel(),
		BufferSize:     256,
		PublishTimeout: 2 * time.Second,
	}
}
