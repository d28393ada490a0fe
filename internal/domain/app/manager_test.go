package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

func TestInitializeSentOnce(t *testing.T) {
	h := newHarness(t, nil)

	first := h.start("mojo:hello", nil)
	require.NotNil(t, first)
	assert.True(t, first.Initialized())

	msg, shell := h.expectInitialize("mojo:hello")
	assert.Equal(t, "mojo:hello", msg.URL)
	assert.Nil(t, msg.Args)
	assert.True(t, shell.IsValid())

	second := h.start("mojo:hello", []string{"ignored"})
	assert.Same(t, first, second)
	assert.True(t, h.quiet(h.launcher.apps["mojo:hello"]), "second lookup must not re-initialize")
	assert.Equal(t, []string{"mojo:hello"}, h.launcher.launches)
}

func TestArgumentPrecedence(t *testing.T) {
	h := newHarness(t, map[string][]string{
		"mojo:configured": {"--from-config"},
		"mojo:overridden": {"--from-config"},
	})

	tests := []struct {
		name     string
		override []string
		want     []string
	}{
		{"mojo:configured", nil, []string{"--from-config"}},
		{"mojo:overridden", []string{"--cli"}, []string{"--cli"}},
		{"mojo:unconfigured", nil, nil},
		{"mojo:empty-override", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := h.start(tt.name, tt.override)
			require.NotNil(t, inst)
			msg, _ := h.expectInitialize(tt.name)
			assert.Equal(t, tt.want, msg.Args)
			assert.Equal(t, tt.want == nil, msg.Args == nil)
		})
	}
}

func TestFailedLaunchRecordsNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.launcher.fail["mojo:broken"] = true

	assert.Nil(t, h.start("mojo:broken", nil))
	h.on(func() { assert.Equal(t, 0, h.manager.Table().Len()) })

	var ok bool
	h.on(func() { ok = h.manager.StartInitialApplication("mojo:broken") })
	assert.False(t, ok)
	assert.Equal(t, []string{"mojo:broken", "mojo:broken"}, h.launcher.launches)
}

func TestConnectToApplication(t *testing.T) {
	h := newHarness(t, nil)
	local, remote, err := h.core.CreateMessagePipe(nil)
	require.NoError(t, err)
	defer h.core.Close(local)

	h.on(func() { h.manager.ConnectToApplication("mojo:b", "mojo:a", remote) })

	h.expectInitialize("mojo:b")
	env, handles := h.receive(h.launcher.apps["mojo:b"])
	require.Equal(t, protocol.MethodAcceptConnection, env.Method)
	var msg protocol.AcceptConnection
	require.NoError(t, env.Bind(&msg))
	assert.Equal(t, "mojo:a", msg.RequestorURL)
	assert.Equal(t, "mojo:b", msg.ResolvedURL)

	services := protocol.HandleAt(handles, msg.Services)
	require.True(t, services.IsValid())
	require.NoError(t, h.core.WriteMessage(local, []byte("hi"), nil, system.WriteMessageFlagNone))
	data, _, err := h.core.ReadMessageAll(services)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Connections.WithLabelValues(monitoring.ResultSuccess)))
}

func TestConnectToUnavailableApplicationClosesServices(t *testing.T) {
	h := newHarness(t, nil)
	h.launcher.fail["mojo:gone"] = true
	local, remote, err := h.core.CreateMessagePipe(nil)
	require.NoError(t, err)
	defer h.core.Close(local)

	h.on(func() { h.manager.ConnectToApplication("mojo:gone", "mojo:a", remote) })

	_, err = h.core.Wait(local, system.SignalPeerClosed, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Connections.WithLabelValues(monitoring.ResultFailure)))
}

func TestShellConnectToApplication(t *testing.T) {
	h := newHarness(t, nil)
	h.start("mojo:a", nil)
	_, shell := h.expectInitialize("mojo:a")

	_, services, err := h.core.CreateMessagePipe(nil)
	require.NoError(t, err)
	require.NoError(t, protocol.NewEndpoint(h.core, shell).Send(protocol.MethodConnectToApplication,
		protocol.ConnectToApplication{ApplicationURL: "mojo:b", Services: 0}, services))

	require.Eventually(t, func() bool {
		var ok bool
		h.on(func() { ok = h.manager.Table().Lookup("mojo:b") != nil })
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	h.expectInitialize("mojo:b")
	env, _ := h.receive(h.launcher.apps["mojo:b"])
	var msg protocol.AcceptConnection
	require.NoError(t, env.Bind(&msg))
	assert.Equal(t, "mojo:a", msg.RequestorURL, "requests on a shell are attributed to its owner")
}

func TestContentHandlerDelegation(t *testing.T) {
	h := newHarness(t, nil)
	h.launcher.delegate["mojo:doc1"] = "mojo:viewer"
	h.launcher.delegate["mojo:doc2"] = "mojo:viewer"

	doc := h.start("mojo:doc1", nil)
	require.NotNil(t, doc)
	assert.Nil(t, doc.Process())

	h.expectInitialize("mojo:viewer")
	viewer := h.launcher.apps["mojo:viewer"]

	env, handles := h.receive(viewer)
	require.Equal(t, protocol.MethodAcceptConnection, env.Method)
	var accept protocol.AcceptConnection
	require.NoError(t, env.Bind(&accept))
	assert.Equal(t, ManagerName, accept.RequestorURL)
	assert.Equal(t, "mojo:viewer", accept.ResolvedURL)

	sp := protocol.HandleAt(handles, accept.Services)
	env, handles = h.receive(sp)
	require.Equal(t, protocol.MethodConnectToService, env.Method)
	var connect protocol.ConnectToService
	require.NoError(t, env.Bind(&connect))
	assert.Equal(t, protocol.ContentHandlerService, connect.InterfaceName)
	contentHandler := protocol.HandleAt(handles, connect.Pipe)

	env, handles = h.receive(contentHandler)
	require.Equal(t, protocol.MethodStartApplication, env.Method)
	var start protocol.StartApplication
	require.NoError(t, env.Bind(&start))
	assert.Equal(t, "file:///apps/mojo:doc1", start.Response.URL)
	assert.Equal(t, 200, start.Response.StatusCode)
	assert.True(t, protocol.HandleAt(handles, start.Application).IsValid())
	body, err := io.ReadAll(system.NewConsumerReader(h.core, protocol.HandleAt(handles, start.Response.Body)))
	require.NoError(t, err)
	assert.Equal(t, "body of mojo:doc1", string(body))

	// A second document reuses the content handler pipe.
	h.start("mojo:doc2", nil)
	env, _ = h.receive(contentHandler)
	assert.Equal(t, protocol.MethodStartApplication, env.Method)
	assert.True(t, h.quiet(viewer))
}

func TestContentHandlerCycleFails(t *testing.T) {
	h := newHarness(t, nil)
	h.launcher.delegate["mojo:self"] = "mojo:self"

	h.start("mojo:self", nil)
	assert.Equal(t, []string{"mojo:self"}, h.launcher.launches, "no recursive launch")
}

func TestTerminationRemovesInstance(t *testing.T) {
	h := newHarness(t, nil)
	inst := h.start("mojo:short", nil)
	require.NotNil(t, inst)
	h.expectInitialize("mojo:short")

	require.NoError(t, h.core.Close(h.launcher.apps["mojo:short"]))

	require.Eventually(t, func() bool {
		var n int
		h.on(func() { n = h.manager.Table().Len() })
		return n == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, h.launcher.processes["mojo:short"].killed.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Terminations))
}

func TestTerminationHook(t *testing.T) {
	h := newHarness(t, nil)
	var seen []InstanceTerminated
	h.manager.OnTerminated(func(ev InstanceTerminated) { seen = append(seen, ev) })
	inst := h.start("mojo:app", nil)
	require.NotNil(t, inst)

	h.on(func() {
		h.manager.HandleEvent(InstanceTerminated{Name: "mojo:app", ID: "inst_stale"})
		h.manager.HandleEvent(InstanceTerminated{Name: "mojo:app", ID: inst.ID()})
	})
	h.on(func() {
		assert.Equal(t, []InstanceTerminated{{Name: "mojo:app", ID: inst.ID()}}, seen)
	})
}

func TestStaleTerminationIgnored(t *testing.T) {
	h := newHarness(t, nil)
	inst := h.start("mojo:app", nil)
	require.NotNil(t, inst)

	h.on(func() {
		h.manager.HandleEvent(InstanceTerminated{Name: "mojo:app", ID: "inst_stale"})
		assert.Same(t, inst, h.manager.Table().Lookup("mojo:app"))

		h.manager.HandleEvent(InstanceTerminated{Name: "mojo:other", ID: inst.ID()})
		assert.Equal(t, 1, h.manager.Table().Len())

		h.manager.HandleEvent(InstanceTerminated{Name: "mojo:app", ID: inst.ID()})
		assert.Nil(t, h.manager.Table().Lookup("mojo:app"))
	})
}

func TestRestartGetsNewIdentity(t *testing.T) {
	h := newHarness(t, nil)
	first := h.start("mojo:app", nil)
	h.on(func() { h.manager.StopApplication("mojo:app") })
	second := h.start("mojo:app", nil)

	require.NotNil(t, second)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, []string{"mojo:app", "mojo:app"}, h.launcher.launches)
}

func TestStopApplicationClosesPipes(t *testing.T) {
	h := newHarness(t, nil)
	h.start("mojo:app", nil)
	_, shell := h.expectInitialize("mojo:app")

	h.on(func() { h.manager.StopApplication("mojo:app") })

	_, err := h.core.Wait(h.launcher.apps["mojo:app"], system.SignalPeerClosed, 0)
	assert.NoError(t, err)
	_, err = h.core.Wait(shell, system.SignalPeerClosed, 0)
	assert.NoError(t, err)
	assert.True(t, h.launcher.processes["mojo:app"].killed.Load())

	assert.NotPanics(t, func() {
		h.on(func() { h.manager.StopApplication("mojo:app") })
	})
}

func TestShutdownWaitsForApplicationsToQuit(t *testing.T) {
	h := newHarness(t, nil)
	names := []string{"mojo:a", "mojo:b"}
	for _, name := range names {
		h.start(name, nil)
		h.expectInitialize(name)
	}

	done := make(chan error, 1)
	go func() { done <- h.manager.Shutdown(context.Background(), time.Minute) }()

	for _, name := range names {
		env, _ := h.receive(h.launcher.apps[name])
		assert.Equal(t, protocol.MethodRequestQuit, env.Method)
		h.core.Close(h.launcher.apps[name])
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return after every application quit")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Terminations))
	h.on(func() { assert.Equal(t, 0, h.manager.Table().Len()) })
}

func TestShutdownKillsAfterGrace(t *testing.T) {
	h := newHarness(t, nil)
	h.start("mojo:stubborn", nil)
	h.expectInitialize("mojo:stubborn")

	grace := 50 * time.Millisecond
	started := time.Now()
	require.NoError(t, h.manager.Shutdown(context.Background(), grace))
	assert.GreaterOrEqual(t, time.Since(started), grace)

	env, _ := h.receive(h.launcher.apps["mojo:stubborn"])
	assert.Equal(t, protocol.MethodRequestQuit, env.Method)
	assert.True(t, h.launcher.processes["mojo:stubborn"].killed.Load())
	assert.Zero(t, testutil.ToFloat64(h.metrics.Terminations))
	h.on(func() { assert.Equal(t, 0, h.manager.Table().Len()) })
}

func TestShutdownWithNoInstancesReturnsImmediately(t *testing.T) {
	h := newHarness(t, nil)
	started := time.Now()
	require.NoError(t, h.manager.Shutdown(context.Background(), time.Hour))
	assert.Less(t, time.Since(started), time.Minute)
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, map[string][]string{"mojo:a": {"x"}})
	h.start("mojo:b", nil)
	h.start("mojo:a", nil)

	infos, err := h.manager.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "mojo:a", infos[0].Name)
	assert.Equal(t, []string{"x"}, infos[0].Args)
	assert.True(t, infos[0].Initialized)
	assert.False(t, infos[0].Delegated)
	assert.NotZero(t, infos[0].Pid)
	assert.Equal(t, "mojo:b", infos[1].Name)
}
