package application

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Connection is an incoming connection from another application.
// Services is the ServiceProvider request the requestor sent, possibly
// invalid; the handler owns it.
type Connection struct {
	RequestorURL string
	ResolvedURL  string
	Services     system.Handle
}

// Handler is implemented by applications.
type Handler interface {
	Initialize(app *App)
	AcceptConnection(app *App, conn Connection)
}

// App is the application side of an application request pipe.
type App struct {
	Core   *system.Core
	Loop   *loop.Loop
	Logger *zap.Logger

	endpoint protocol.Endpoint
	handler  Handler

	initialized bool
	shell       *Shell
	args        []string
	url         string
}

// New wraps request, the application end of an application pipe.
func New(core *system.Core, lp *loop.Loop, request system.Handle, handler Handler, logger *zap.Logger) *App {
	return &App{
		Core:     core,
		Loop:     lp,
		Logger:   logger,
		endpoint: protocol.NewEndpoint(core, request),
		handler:  handler,
	}
}

// Start begins dispatching on the loop. The loop quits when the manager
// sends RequestQuit or closes the pipe. Call it on the loop goroutine.
func (a *App) Start() error {
	return a.Serve(a.Loop.Quit)
}

// Serve is Start for applications that share a loop, such as those a
// content handler runs: done replaces quitting the loop.
func (a *App) Serve(done func()) error {
	return Serve(a.Loop, a.endpoint, a.dispatch, done, a.Logger)
}

// Shell is nil until initialization.
func (a *App) Shell() *Shell { return a.shell }

// Args returns the initialization arguments; nil when none were
// configured.
func (a *App) Args() []string { return a.args }

// URL is the name the application was started under.
func (a *App) URL() string { return a.url }

func (a *App) dispatch(env *protocol.Envelope, handles []system.Handle) bool {
	switch env.Method {
	case protocol.MethodInitialize:
		var msg protocol.Initialize
		if err := env.Bind(&msg); err != nil || a.initialized {
			a.Logger.Warn("Ignoring Initialize", zap.Bool("initialized", a.initialized), zap.Error(err))
			closeExcept(a.Core, handles)
			return true
		}
		shell := protocol.HandleAt(handles, msg.Shell)
		closeExcept(a.Core, handles, shell)
		a.initialized = true
		a.args = msg.Args
		a.url = msg.URL
		if shell.IsValid() {
			a.shell = &Shell{endpoint: protocol.NewEndpoint(a.Core, shell)}
		}
		a.handler.Initialize(a)

	case protocol.MethodAcceptConnection:
		var msg protocol.AcceptConnection
		if err := env.Bind(&msg); err != nil {
			a.Logger.Warn("Bad AcceptConnection", zap.Error(err))
			closeExcept(a.Core, handles)
			return true
		}
		services := protocol.HandleAt(handles, msg.Services)
		closeExcept(a.Core, handles, services)
		a.handler.AcceptConnection(a, Connection{
			RequestorURL: msg.RequestorURL,
			ResolvedURL:  msg.ResolvedURL,
			Services:     services,
		})

	case protocol.MethodRequestQuit:
		closeExcept(a.Core, handles)
		a.Logger.Info("Quit requested", zap.String("url", a.url))
		return false

	default:
		a.Logger.Warn("Unknown application method", zap.String("method", env.Method))
		closeExcept(a.Core, handles)
	}
	return true
}
