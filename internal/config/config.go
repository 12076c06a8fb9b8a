// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all configuration for both the API server and the worker.
type AppConfig struct {
	// AppName is used as the sender display name and subject prefix on
	// outgoing email.
	AppName string `envconfig:"APP_NAME" default:"Mailroom"`

	// Port is the HTTP API port.
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the root data directory (SQLite database, logs).
	// Defaults to ~/.mailroom.
	DataDir string `envconfig:"MAILROOM_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFile, when set, sends logs to a rotating file instead of stdout.
	LogFile string `envconfig:"LOG_FILE"`

	// Redis connection for the durable job queue.
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// SMTP transport settings.
	EmailHost string `envconfig:"EMAIL_HOST"`
	EmailPort int    `envconfig:"EMAIL_PORT" default:"587"`
	EmailUser string `envconfig:"EMAIL_USER"`
	EmailPass string `envconfig:"EMAIL_PASS"`
	EmailFrom string `envconfig:"EMAIL_FROM"`

	// EmailEncryption selects the TLS policy: "none", "starttls" or "ssl_tls".
	EmailEncryption string `envconfig:"EMAIL_ENCRYPTION" default:"starttls"`

	// TemplatesDir overrides the embedded email templates when set.
	TemplatesDir string `envconfig:"TEMPLATES_DIR"`

	// WorkerConcurrency is the number of concurrent claim loops in the worker.
	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"3"`

	// ClaimTimeoutSec is how long a claimed job may stay active before the
	// sweeper considers its worker dead and returns the job to the queue.
	ClaimTimeoutSec int `envconfig:"CLAIM_TIMEOUT_SEC" default:"60"`
}

// Load reads AppConfig from environment variables.
// DataDir defaults to ~/.mailroom if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".mailroom")
	}
	return &c, nil
}

// RedisAddr returns the host:port address of the queue store.
func (c *AppConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "mailroom.db")
}

// ClaimTimeout returns ClaimTimeoutSec as a duration.
func (c *AppConfig) ClaimTimeout() time.Duration {
	return time.Duration(c.ClaimTimeoutSec) * time.Second
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
