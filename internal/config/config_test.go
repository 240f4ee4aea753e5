package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 30, cfg.MaxPlayers)
	assert.Equal(t, time.Hour, cfg.LobbyRetention)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 3*time.Second, cfg.RespawnDelay)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(envOf(map[string]string{
		"HOST":            "127.0.0.1",
		"PORT":            "4000",
		"MAX_PLAYERS":     "8",
		"LOBBY_RETENTION": "30m",
		"SWEEP_INTERVAL":  "1m",
		"RESPAWN_DELAY":   "500ms",
		"LOG_LEVEL":       "DEBUG",
		"LOG_FILE":        "/tmp/relay.log",
		"REDIS_URL":       "redis://localhost:6379/1",
		"ALLOWED_ORIGINS": "https://a.example, https://b.example,,",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.Addr())
	assert.Equal(t, 8, cfg.MaxPlayers)
	assert.Equal(t, 30*time.Minute, cfg.LobbyRetention)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.RespawnDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/relay.log", cfg.LogFile)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"non-numeric port":  {"PORT": "http"},
		"port out of range": {"PORT": "70000"},
		"zero max players":  {"MAX_PLAYERS": "0"},
		"bad retention":     {"LOBBY_RETENTION": "forever"},
		"negative interval": {"SWEEP_INTERVAL": "-1m"},
		"bare number delay": {"RESPAWN_DELAY": "3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(envOf(env))
			assert.Error(t, err)
		})
	}
}
