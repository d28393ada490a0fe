package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "chatty"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestFileSinkReceivesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appmgr.log")

	cfg := DefaultConfig()
	cfg.File = path
	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Named("launcher").Info("launched")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"launched"`)
	assert.Contains(t, string(data), `"logger":"launcher"`)
}

func TestDefaultsNeverReturnNil(t *testing.T) {
	assert.NotNil(t, NewDefault().Logger)
	assert.NotNil(t, NewDevelopment().Logger)
}
