package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mojo:", cfg.Launcher.Scheme)
	assert.Equal(t, "/boot/apps/", cfg.Launcher.Root)
	assert.Equal(t, uint32(5), cfg.Spawn.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Spawn.Cooldown)
	assert.Equal(t, 2*time.Second, cfg.Shutdown.Grace)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ROOT", "/tmp/apps/")
	t.Setenv("SPAWN_COOLDOWN", "2s")
	t.Setenv("CONTROL_GRPC_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/apps/", cfg.Launcher.Root)
	assert.Equal(t, 2*time.Second, cfg.Spawn.Cooldown)
	assert.True(t, cfg.Control.Enabled)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "lots")

	cfg := LoadOrDefault()
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Launcher.Root = "/srv/apps"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/srv/apps/", cfg.Launcher.Root)

	cfg = Default()
	cfg.Launcher.Scheme = ""
	cfg.Spawn.MaxFailures = 0
	cfg.RateLimit.Burst = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
	assert.Contains(t, err.Error(), "max failures")
	assert.Contains(t, err.Error(), "rate limit")

	cfg = Default()
	cfg.Shutdown.Grace = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "shutdown grace")

	cfg = Default()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Burst = 0
	assert.NoError(t, cfg.Validate())
}
