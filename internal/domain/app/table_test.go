package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

func TestTableReturnsExistingEntryUninitialized(t *testing.T) {
	core := system.NewCore()
	fl := newFakeLauncher(core)
	table := NewTable(core, fl, zaptest.NewLogger(t))

	first := table.GetOrStartApplication(nil, "mojo:a")
	require.NotNil(t, first)
	assert.False(t, first.Initialized())

	second := table.GetOrStartApplication(nil, "mojo:a")
	assert.Same(t, first, second)
	assert.Equal(t, []string{"mojo:a"}, fl.launches)
	assert.Equal(t, []string{"mojo:a"}, table.Names())
}

func TestTableFailedLaunchClosesPipe(t *testing.T) {
	core := system.NewCore()
	fl := newFakeLauncher(core)
	fl.fail["mojo:a"] = true
	table := NewTable(core, fl, zaptest.NewLogger(t))

	assert.Nil(t, table.GetOrStartApplication(nil, "mojo:a"))
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Lookup("mojo:a"))
}

func TestTableStopApplication(t *testing.T) {
	core := system.NewCore()
	fl := newFakeLauncher(core)
	table := NewTable(core, fl, zaptest.NewLogger(t))

	inst := table.GetOrStartApplication(nil, "mojo:a")
	require.NotNil(t, inst)
	table.StopApplication("mojo:a")
	table.StopApplication("mojo:missing")

	assert.Equal(t, 0, table.Len())
	_, err := core.Wait(fl.apps["mojo:a"], system.SignalPeerClosed, 0)
	assert.NoError(t, err)
	assert.True(t, fl.processes["mojo:a"].killed.Load())
}
