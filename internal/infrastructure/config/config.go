package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application manager configuration.
type Config struct {
	Launcher  LauncherConfig
	Startup   StartupConfig
	Server    ServerConfig
	Control   ControlConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Spawn     SpawnConfig
	Shutdown  ShutdownConfig
}

// LauncherConfig controls how application names map to images.
type LauncherConfig struct {
	Scheme string `envconfig:"APP_SCHEME" default:"mojo:"`
	Root   string `envconfig:"APP_ROOT" default:"/boot/apps/"`
}

// StartupConfig points at the initial-apps / args-for document.
type StartupConfig struct {
	Path string `envconfig:"APPMGR_CONFIG"`
}

// ServerConfig holds HTTP introspection server configuration.
type ServerConfig struct {
	Port    string `envconfig:"PORT" default:"8300"`
	Host    string `envconfig:"HOST" default:"127.0.0.1"`
	Enabled bool   `envconfig:"HTTP_ENABLED" default:"true"`
}

// ControlConfig holds the gRPC command feed configuration.
type ControlConfig struct {
	Address string `envconfig:"CONTROL_GRPC_ADDR" default:"127.0.0.1:50310"`
	Enabled bool   `envconfig:"CONTROL_GRPC_ENABLED" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE"`
}

// RateLimitConfig holds rate limiting for the control surfaces.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SpawnConfig tunes the circuit breaker around process creation.
type SpawnConfig struct {
	MaxFailures uint32        `envconfig:"SPAWN_MAX_FAILURES" default:"5"`
	Cooldown    time.Duration `envconfig:"SPAWN_COOLDOWN" default:"30s"`
}

// ShutdownConfig bounds how long running applications get to honor
// RequestQuit before they are killed.
type ShutdownConfig struct {
	Grace time.Duration `envconfig:"SHUTDOWN_GRACE" default:"2s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Launcher: LauncherConfig{
			Scheme: "mojo:",
			Root:   "/boot/apps/",
		},
		Server: ServerConfig{
			Port:    "8300",
			Host:    "127.0.0.1",
			Enabled: true,
		},
		Control: ControlConfig{
			Address: "127.0.0.1:50310",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
		Spawn: SpawnConfig{
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
		Shutdown: ShutdownConfig{
			Grace: 2 * time.Second,
		},
	}
}

// Validate rejects settings the manager cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Launcher.Scheme == "" {
		errs = append(errs, errors.New("launcher scheme is empty"))
	}
	if c.Launcher.Root == "" {
		errs = append(errs, errors.New("launcher root is empty"))
	} else if !strings.HasSuffix(c.Launcher.Root, "/") {
		c.Launcher.Root += "/"
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, fmt.Errorf("rate limit needs positive rps and burst, got %d/%d",
			c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}
	if c.Spawn.MaxFailures == 0 {
		errs = append(errs, errors.New("spawn max failures must be at least 1"))
	}
	if c.Shutdown.Grace < 0 {
		errs = append(errs, fmt.Errorf("shutdown grace must not be negative, got %s", c.Shutdown.Grace))
	}
	return errors.Join(errs...)
}
