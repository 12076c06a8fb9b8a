package config_test

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/mailroom/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAILROOM_DATA_DIR", t.TempDir())

	c, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Mailroom", c.AppName)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "localhost:6379", c.RedisAddr())
	assert.Equal(t, 587, c.EmailPort)
	assert.Equal(t, "starttls", c.EmailEncryption)
	assert.Equal(t, 3, c.WorkerConcurrency)
	assert.Equal(t, 60*time.Second, c.ClaimTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAILROOM_DATA_DIR", dir)
	t.Setenv("APP_NAME", "Shop")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLAIM_TIMEOUT_SEC", "120")

	c, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Shop", c.AppName)
	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, "redis.internal:6380", c.RedisAddr())
	assert.Equal(t, 120*time.Second, c.ClaimTimeout())
	assert.Equal(t, filepath.Join(dir, "mailroom.db"), c.DBPath())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		c := &config.AppConfig{LogLevel: tt.level}
		assert.Equal(t, tt.want, c.SlogLevel(), "level %q", tt.level)
	}
}
