package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONSOLE_PORT", "ALLOCATOR_URL", "POLL_INTERVAL", "POLL_MAX_FAILURES", "LAYOUT_INTERVAL",
	"HTTP_TIMEOUT", "DATABASE_URL", "JWT_SECRET", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RABBITMQ_URL", "HISTORY_LIMIT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.AllocatorURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.PollMaxFailures)
	assert.Equal(t, 3*time.Second, cfg.LayoutInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.JWTSecret)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONSOLE_PORT", "9090")
	t.Setenv("ALLOCATOR_URL", "http://allocator:3000")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_MAX_FAILURES", "5")
	t.Setenv("HTTP_TIMEOUT", "0s")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/booking.db")
	t.Setenv("REDIS_DB", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://allocator:3000", cfg.AllocatorURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5, cfg.PollMaxFailures)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, "sqlite:/tmp/booking.db", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "POLL_INTERVAL", value: "soon"},
		{name: "zero interval", key: "LAYOUT_INTERVAL", value: "0s"},
		{name: "bad int", key: "HISTORY_LIMIT", value: "ten"},
		{name: "negative cap", key: "POLL_MAX_FAILURES", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
