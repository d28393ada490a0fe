package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

const waitLimit = 5 * time.Second

type recordingHandler struct {
	initialized chan *App
	connections chan Connection
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		initialized: make(chan *App, 4),
		connections: make(chan Connection, 4),
	}
}

func (r *recordingHandler) Initialize(app *App)                   { r.initialized <- app }
func (r *recordingHandler) AcceptConnection(_ *App, c Connection) { r.connections <- c }

type fixture struct {
	t    *testing.T
	core *system.Core
	loop *loop.Loop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core := system.NewCore()
	lp, err := loop.New(core, zaptest.NewLogger(t))
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
	return &fixture{t: t, core: core, loop: lp}
}

func (f *fixture) on(fn func()) {
	f.t.Helper()
	require.NoError(f.t, f.loop.Invoke(context.Background(), fn))
}

func (f *fixture) pipe() (system.Handle, system.Handle) {
	f.t.Helper()
	a, b, err := f.core.CreateMessagePipe(nil)
	require.NoError(f.t, err)
	return a, b
}

func (f *fixture) receive(h system.Handle) (*protocol.Envelope, []system.Handle) {
	f.t.Helper()
	_, err := f.core.Wait(h, system.SignalReadable, system.DeadlineFromDuration(waitLimit))
	require.NoError(f.t, err)
	env, handles, err := protocol.NewEndpoint(f.core, h).Receive()
	require.NoError(f.t, err)
	return env, handles
}

// startApp runs an App over a fresh pipe and returns the manager's end.
func (f *fixture) startApp(handler Handler) (protocol.Endpoint, *App) {
	f.t.Helper()
	managerEnd, appEnd := f.pipe()
	app := New(f.core, f.loop, appEnd, handler, zaptest.NewLogger(f.t))
	f.on(func() { assert.NoError(f.t, app.Start()) })
	return protocol.NewEndpoint(f.core, managerEnd), app
}

func (f *fixture) initialize(manager protocol.Endpoint, args []string, url string) system.Handle {
	f.t.Helper()
	shellManager, shellApp := f.pipe()
	require.NoError(f.t, manager.Send(protocol.MethodInitialize, protocol.Initialize{Shell: 0, Args: args, URL: url}, shellApp))
	return shellManager
}

func waitApp(t *testing.T, ch <-chan *App) *App {
	t.Helper()
	select {
	case app := <-ch:
		return app
	case <-time.After(waitLimit):
		t.Fatal("application was not initialized")
		return nil
	}
}

func TestInitializeDeliversShellArgsAndURL(t *testing.T) {
	f := newFixture(t)
	handler := newRecordingHandler()
	manager, _ := f.startApp(handler)

	shellManager := f.initialize(manager, []string{"--v=1"}, "mojo:hello")
	app := waitApp(t, handler.initialized)

	f.on(func() {
		assert.Equal(t, []string{"--v=1"}, app.Args())
		assert.Equal(t, "mojo:hello", app.URL())
		if assert.NotNil(t, app.Shell()) {
			assert.NoError(t, app.Shell().ConnectToApplication("mojo:other", system.HandleInvalid))
		}
	})

	env, handles := f.receive(shellManager)
	assert.Equal(t, protocol.MethodConnectToApplication, env.Method)
	var msg protocol.ConnectToApplication
	require.NoError(t, env.Bind(&msg))
	assert.Equal(t, "mojo:other", msg.ApplicationURL)
	assert.Equal(t, protocol.NoHandle, msg.Services)
	assert.Empty(t, handles)
}

func TestInitializeKeepsNilArgs(t *testing.T) {
	f := newFixture(t)
	handler := newRecordingHandler()
	manager, _ := f.startApp(handler)

	f.initialize(manager, nil, "mojo:hello")
	app := waitApp(t, handler.initialized)
	f.on(func() { assert.Nil(t, app.Args()) })
}

func TestSecondInitializeIgnored(t *testing.T) {
	f := newFixture(t)
	handler := newRecordingHandler()
	manager, _ := f.startApp(handler)

	f.initialize(manager, []string{"first"}, "mojo:hello")
	app := waitApp(t, handler.initialized)
	f.initialize(manager, []string{"second"}, "mojo:hello")

	// Messages are dispatched in order, so the connection arrives after the
	// second Initialize was handled.
	require.NoError(t, manager.Send(protocol.MethodAcceptConnection, protocol.AcceptConnection{
		RequestorURL: "mojo:caller",
		Services:     protocol.NoHandle,
	}))
	select {
	case <-handler.connections:
	case <-time.After(waitLimit):
		t.Fatal("connection was not accepted")
	}
	f.on(func() { assert.Equal(t, []string{"first"}, app.Args()) })
	assert.Empty(t, handler.initialized)
}

func TestAcceptConnectionHandsOverServices(t *testing.T) {
	f := newFixture(t)
	handler := newRecordingHandler()
	manager, _ := f.startApp(handler)
	f.initialize(manager, nil, "mojo:hello")
	waitApp(t, handler.initialized)

	local, remote := f.pipe()
	require.NoError(t, manager.Send(protocol.MethodAcceptConnection, protocol.AcceptConnection{
		RequestorURL: "mojo:caller",
		ResolvedURL:  "mojo:hello",
		Services:     0,
	}, remote))

	select {
	case conn := <-handler.connections:
		assert.Equal(t, "mojo:caller", conn.RequestorURL)
		assert.Equal(t, "mojo:hello", conn.ResolvedURL)
		require.True(t, conn.Services.IsValid())
		require.NoError(t, f.core.WriteMessage(local, []byte("ping"), nil, system.WriteMessageFlagNone))
		data, _, err := f.core.ReadMessageAll(conn.Services)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(data))
	case <-time.After(waitLimit):
		t.Fatal("connection was not accepted")
	}
}

func TestRequestQuitStopsLoop(t *testing.T) {
	f := newFixture(t)
	handler := newRecordingHandler()
	manager, _ := f.startApp(handler)
	f.initialize(manager, nil, "mojo:hello")
	waitApp(t, handler.initialized)

	require.NoError(t, manager.Send(protocol.MethodRequestQuit, nil))

	select {
	case <-f.loop.Done():
	case <-time.After(waitLimit):
		t.Fatal("loop did not quit")
	}
	_, err := f.core.Wait(manager.Handle, system.SignalPeerClosed, system.DeadlineFromDuration(waitLimit))
	assert.NoError(t, err)
}

func TestManagerClosureStopsLoop(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.startApp(newRecordingHandler())

	require.NoError(t, manager.Close())

	select {
	case <-f.loop.Done():
	case <-time.After(waitLimit):
		t.Fatal("loop did not quit")
	}
}

func TestServeKeepsSharedLoopRunning(t *testing.T) {
	f := newFixture(t)
	managerEnd, appEnd := f.pipe()
	app := New(f.core, f.loop, appEnd, newRecordingHandler(), zaptest.NewLogger(t))
	finished := make(chan struct{})
	f.on(func() { assert.NoError(t, app.Serve(func() { close(finished) })) })

	manager := protocol.NewEndpoint(f.core, managerEnd)
	require.NoError(t, manager.Send(protocol.MethodRequestQuit, nil))

	select {
	case <-finished:
	case <-time.After(waitLimit):
		t.Fatal("done was not called")
	}
	select {
	case <-f.loop.Done():
		t.Fatal("shared loop quit")
	default:
	}
	f.on(func() {})
}

func TestServeServicesBindsKnownNames(t *testing.T) {
	f := newFixture(t)
	client, server := f.pipe()
	bound := make(chan system.Handle, 1)
	f.on(func() {
		assert.NoError(t, ServeServices(f.loop, f.core, server, map[string]Binder{
			"echo": func(pipe system.Handle) { bound <- pipe },
		}, zaptest.NewLogger(t)))
	})
	sp := protocol.NewEndpoint(f.core, client)

	echoLocal, echoRemote := f.pipe()
	require.NoError(t, sp.Send(protocol.MethodConnectToService, protocol.ConnectToService{InterfaceName: "echo", Pipe: 0}, echoRemote))
	missingLocal, missingRemote := f.pipe()
	require.NoError(t, sp.Send(protocol.MethodConnectToService, protocol.ConnectToService{InterfaceName: "missing", Pipe: 0}, missingRemote))

	select {
	case pipe := <-bound:
		require.NoError(t, f.core.WriteMessage(echoLocal, []byte("hi"), nil, system.WriteMessageFlagNone))
		data, _, err := f.core.ReadMessageAll(pipe)
		require.NoError(t, err)
		assert.Equal(t, "hi", string(data))
	case <-time.After(waitLimit):
		t.Fatal("echo was not bound")
	}

	_, err := f.core.Wait(missingLocal, system.SignalPeerClosed, system.DeadlineFromDuration(waitLimit))
	assert.NoError(t, err, "unknown service pipes are closed")
}

func TestServeContentHandlerStartsApplications(t *testing.T) {
	f := newFixture(t)
	client, server := f.pipe()
	type started struct {
		request  system.Handle
		response protocol.URLResponse
		body     system.Handle
	}
	starts := make(chan started, 1)
	f.on(func() {
		assert.NoError(t, ServeContentHandler(f.loop, f.core, server, func(request system.Handle, response protocol.URLResponse, body system.Handle) {
			starts <- started{request, response, body}
		}, zaptest.NewLogger(t)))
	})

	_, request := f.pipe()
	producer, consumer, err := f.core.CreateDataPipe(nil)
	require.NoError(t, err)
	_, err = f.core.WriteData(producer, []byte("print('hi')"), system.WriteDataFlagNone)
	require.NoError(t, err)
	require.NoError(t, f.core.Close(producer))

	msg := protocol.StartApplication{
		Application: 0,
		Response: protocol.URLResponse{
			URL:        "file:///apps/script",
			StatusCode: 200,
			MimeType:   "text/plain",
			Body:       1,
		},
	}
	require.NoError(t, protocol.NewEndpoint(f.core, client).Send(protocol.MethodStartApplication, msg, request, consumer))

	select {
	case s := <-starts:
		assert.True(t, s.request.IsValid())
		assert.Equal(t, "file:///apps/script", s.response.URL)
		assert.Equal(t, "text/plain", s.response.MimeType)
		data, _, err := f.core.ReadData(s.body, 64, system.ReadDataFlagNone)
		require.NoError(t, err)
		assert.Equal(t, "print('hi')", string(data))
	case <-time.After(waitLimit):
		t.Fatal("application was not started")
	}
}

func TestShellConnectToService(t *testing.T) {
	f := newFixture(t)
	shellManager, shellApp := f.pipe()
	shell := NewShell(f.core, shellApp)
	defer shell.Close()

	local, err := shell.ConnectToService("mojo:icu_data_provider", protocol.ICUDataProviderService)
	require.NoError(t, err)

	env, handles := f.receive(shellManager)
	require.Equal(t, protocol.MethodConnectToApplication, env.Method)
	var connect protocol.ConnectToApplication
	require.NoError(t, env.Bind(&connect))
	assert.Equal(t, "mojo:icu_data_provider", connect.ApplicationURL)
	services := protocol.HandleAt(handles, connect.Services)
	require.True(t, services.IsValid())

	env, handles = f.receive(services)
	require.Equal(t, protocol.MethodConnectToService, env.Method)
	var bind protocol.ConnectToService
	require.NoError(t, env.Bind(&bind))
	assert.Equal(t, protocol.ICUDataProviderService, bind.InterfaceName)
	remote := protocol.HandleAt(handles, bind.Pipe)

	require.NoError(t, f.core.WriteMessage(local, []byte("req"), nil, system.WriteMessageFlagNone))
	data, _, err := f.core.ReadMessageAll(remote)
	require.NoError(t, err)
	assert.Equal(t, "req", string(data))
}
