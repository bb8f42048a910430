package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 5*time.Minute, cfg.RoomIdleThreshold)
	assert.Equal(t, time.Minute, cfg.RoomSweepInterval)
}

func TestNewConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")
	t.Setenv("ROOM_IDLE_THRESHOLD", "120")
	t.Setenv("ROOM_SWEEP_INTERVAL", "30")

	cfg := NewConfigFromEnv()

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 120*time.Second, cfg.RoomIdleThreshold)
	assert.Equal(t, 30*time.Second, cfg.RoomSweepInterval)
}

func TestNewConfigFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not a number")
	t.Setenv("RATE_LIMIT_BURST", "-3")
	t.Setenv("ROOM_IDLE_THRESHOLD", "0")
	t.Setenv("ROOM_SWEEP_INTERVAL", "zero")

	cfg := NewConfigFromEnv()

	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 5*time.Minute, cfg.RoomIdleThreshold)
	assert.Equal(t, time.Minute, cfg.RoomSweepInterval)
}

func TestSetConfigSanitizesZeroValues(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{})
	cfg := currentConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 5*time.Minute, cfg.RoomIdleThreshold)
	assert.Equal(t, time.Minute, cfg.RoomSweepInterval)
}

func TestSetConfigNormalizesOrigins(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{AllowedOrigins: []string{" HTTP://Example.COM ", "*", "not a url", ""}})
	cfg := currentConfig()

	assert.Equal(t, []string{"http://example.com"}, cfg.AllowedOrigins)

	configMu.RLock()
	defer configMu.RUnlock()
	assert.True(t, allowAllOrigins)
}
