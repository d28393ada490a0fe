package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

type fakeProcess struct {
	pid    int
	killed atomic.Bool
}

func (p *fakeProcess) Pid() int              { return p.pid }
func (p *fakeProcess) Kill() error           { p.killed.Store(true); return nil }
func (p *fakeProcess) Done() <-chan struct{} { return nil }
func (p *fakeProcess) ExitCode() int         { return -1 }

// fakeLauncher hands the application end of each launched pipe to the
// test, which then plays the application.
type fakeLauncher struct {
	core      *system.Core
	apps      map[string]system.Handle
	processes map[string]*fakeProcess
	fail      map[string]bool
	delegate  map[string]string
	launches  []string
}

func newFakeLauncher(core *system.Core) *fakeLauncher {
	return &fakeLauncher{
		core:      core,
		apps:      make(map[string]system.Handle),
		processes: make(map[string]*fakeProcess),
		fail:      make(map[string]bool),
		delegate:  make(map[string]string),
	}
}

func (f *fakeLauncher) Launch(owner launcher.ContentHandlerStarter, name string, request system.Handle) (bool, launcher.Process) {
	f.launches = append(f.launches, name)
	if f.fail[name] {
		f.core.Close(request)
		return false, nil
	}
	if handler, ok := f.delegate[name]; ok {
		producer, consumer, _ := f.core.CreateDataPipe(nil)
		f.core.WriteData(producer, []byte("body of "+name), system.WriteDataFlagNone)
		f.core.Close(producer)
		owner.StartApplicationUsingContentHandler(handler, &launcher.Response{
			URL:        "file:///apps/" + name,
			StatusCode: 200,
			MimeType:   "text/plain",
			Body:       consumer,
		}, request)
		return true, nil
	}
	f.apps[name] = request
	p := &fakeProcess{pid: 1000 + len(f.launches)}
	f.processes[name] = p
	return true, p
}

type harness struct {
	t        *testing.T
	core     *system.Core
	loop     *loop.Loop
	launcher *fakeLauncher
	metrics  *monitoring.Metrics
	manager  *Manager
}

func newHarness(t *testing.T, argsFor map[string][]string) *harness {
	t.Helper()
	core := system.NewCore()
	logger := zaptest.NewLogger(t)
	lp, err := loop.New(core, logger.Named("loop"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		lp.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		lp.Close()
	})

	h := &harness{
		t:        t,
		core:     core,
		loop:     lp,
		launcher: newFakeLauncher(core),
		metrics:  monitoring.NewMetrics(),
	}
	h.manager = NewManager(core, lp, h.launcher, argsFor, logger.Named("manager")).WithMetrics(h.metrics)
	return h
}

// on runs fn on the loop goroutine and waits for it.
func (h *harness) on(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.loop.Invoke(context.Background(), fn))
}

func (h *harness) start(name string, override []string) *Instance {
	h.t.Helper()
	var inst *Instance
	h.on(func() { inst = h.manager.GetOrStartApplicationInstance(name, override) })
	return inst
}

// receive waits for the next message on h.
func (h *harness) receive(handle system.Handle) (*protocol.Envelope, []system.Handle) {
	h.t.Helper()
	_, err := h.core.Wait(handle, system.SignalReadable, system.DeadlineFromDuration(5*time.Second))
	require.NoError(h.t, err)
	env, handles, err := protocol.NewEndpoint(h.core, handle).Receive()
	require.NoError(h.t, err)
	return env, handles
}

func (h *harness) expectInitialize(name string) (protocol.Initialize, system.Handle) {
	h.t.Helper()
	app, ok := h.launcher.apps[name]
	require.True(h.t, ok, "no application pipe for %s", name)
	env, handles := h.receive(app)
	require.Equal(h.t, protocol.MethodInitialize, env.Method)
	var msg protocol.Initialize
	require.NoError(h.t, env.Bind(&msg))
	return msg, protocol.HandleAt(handles, msg.Shell)
}

func (h *harness) quiet(handle system.Handle) bool {
	_, _, _, _, err := h.core.ReadMessage(handle, 0, 0, system.ReadMessageFlagNone)
	return err != nil && system.KindOf(err) == system.ShouldWait
}
