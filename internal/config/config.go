// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/spacetime-relay/internal/services/reaper"
	"github.com/mcoot/spacetime-relay/internal/services/relay"
	"github.com/mcoot/spacetime-relay/internal/storage/memory"
)

// Config holds every server setting
type Config struct {
	Host string
	Port int

	MaxPlayers     int
	LobbyRetention time.Duration
	SweepInterval  time.Duration
	RespawnDelay   time.Duration

	LogLevel string
	LogFile  string

	// RedisURL enables the activity feed when set
	RedisURL string

	// AllowedOrigins restricts websocket Origin headers. Empty allows any.
	AllowedOrigins []string
}

// Default returns the configuration used when no variables are set
func Default() Config {
	return Config{
		Port:           3000,
		MaxPlayers:     memory.DefaultMaxPlayers,
		LobbyRetention: reaper.DefaultRetention,
		SweepInterval:  reaper.DefaultInterval,
		RespawnDelay:   relay.DefaultRespawnDelay,
		LogLevel:       "info",
	}
}

// Load reads configuration from the process environment
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration using getenv for lookups
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	cfg.Host = getEnvOrDefault(getenv, "HOST", cfg.Host)
	if cfg.Port, err = getInt(getenv, "PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT: %d out of range", cfg.Port)
	}
	if cfg.MaxPlayers, err = getInt(getenv, "MAX_PLAYERS", cfg.MaxPlayers); err != nil {
		return Config{}, err
	}
	if cfg.MaxPlayers < 1 {
		return Config{}, fmt.Errorf("MAX_PLAYERS: must be at least 1, got %d", cfg.MaxPlayers)
	}
	if cfg.LobbyRetention, err = getDuration(getenv, "LOBBY_RETENTION", cfg.LobbyRetention); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = getDuration(getenv, "SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return Config{}, err
	}
	if cfg.RespawnDelay, err = getDuration(getenv, "RESPAWN_DELAY", cfg.RespawnDelay); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = strings.ToLower(getEnvOrDefault(getenv, "LOG_LEVEL", cfg.LogLevel))
	cfg.LogFile = getEnvOrDefault(getenv, "LOG_FILE", cfg.LogFile)
	cfg.RedisURL = getEnvOrDefault(getenv, "REDIS_URL", cfg.RedisURL)

	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(getenv func(string) string, key, defaultValue string) string {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(getenv func(string) string, key string, defaultValue int) (int, error) {
	raw := getEnvOrDefault(getenv, key, "")
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return value, nil
}

func getDuration(getenv func(string) string, key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(getenv, key, "")
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, raw)
	}
	return value, nil
}
