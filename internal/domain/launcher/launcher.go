package launcher

import (
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Response is the synthetic URL response handed to a content handler. Body
// is the consumer end of a data pipe carrying the file.
type Response struct {
	URL        string
	StatusCode int
	MimeType   string
	Body       system.Handle
}

// ContentHandlerStarter receives launches delegated to a content handler.
// It takes ownership of response.Body and request.
type ContentHandlerStarter interface {
	StartApplicationUsingContentHandler(handlerName string, response *Response, request system.Handle)
}

// Launcher resolves names and starts applications.
type Launcher struct {
	core     *system.Core
	resolver Resolver
	spawner  Spawner
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a launcher. metrics may be nil.
func New(core *system.Core, resolver Resolver, spawner Spawner, logger *zap.Logger, metrics *monitoring.Metrics) *Launcher {
	return &Launcher{
		core:     core,
		resolver: resolver,
		spawner:  spawner,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolver returns the resolver in use.
func (l *Launcher) Resolver() Resolver { return l.resolver }

// ResolveName resolves name to a path, or "".
func (l *Launcher) ResolveName(name string) string {
	return l.resolver.ResolveName(name)
}

// TryContentHandler checks path for a content handler directive. Without
// one it returns false and hands request back untouched. With one it
// streams the file into a new data pipe, passes the launch to owner and
// returns true; request has then been consumed.
func (l *Launcher) TryContentHandler(owner ContentHandlerStarter, path string, request system.Handle) (bool, system.Handle) {
	f, err := os.Open(path)
	if err != nil {
		return false, request
	}

	window, err := readWindow(f)
	if err != nil {
		f.Close()
		return false, request
	}
	handler, ok := parseDirective(window)
	if !ok {
		f.Close()
		return false, request
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return false, request
	}

	producer, consumer, err := l.core.CreateDataPipe(nil)
	if err != nil {
		l.logger.Warn("Failed to create response body pipe", zap.String("path", path), zap.Error(err))
		f.Close()
		return false, request
	}

	response := &Response{
		URL:        "file://" + path,
		StatusCode: 200,
		MimeType:   mimetype.Detect(window).String(),
		Body:       consumer,
	}
	go l.stream(f, producer)

	l.logger.Debug("Delegating to content handler",
		zap.String("path", path),
		zap.String("handler", handler))
	owner.StartApplicationUsingContentHandler(handler, response, request)
	return true, system.HandleInvalid
}

// stream copies f into producer. Failures only end the body early.
func (l *Launcher) stream(f *os.File, producer system.Handle) {
	w := system.NewProducerWriter(l.core, producer)
	defer w.Close()
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		l.logger.Debug("Content stream ended early", zap.String("path", f.Name()), zap.Error(err))
	}
}

// LaunchProcess starts path as a process. It returns nil on any failure.
func (l *Launcher) LaunchProcess(path string, request system.Handle) Process {
	proc, err := l.spawner.Spawn(path, request)
	if err != nil {
		l.logger.Warn("Failed to launch process", zap.String("path", path), zap.Error(err))
		return nil
	}
	l.logger.Info("Launched application process", zap.String("path", path), zap.Int("pid", proc.Pid()))
	return proc
}

// Launch starts name. It returns (false, nil) when name does not resolve
// or the process cannot be started, (true, nil) when a content handler
// took the launch, and (true, proc) for a direct launch. request is
// consumed in every case.
func (l *Launcher) Launch(owner ContentHandlerStarter, name string, request system.Handle) (bool, Process) {
	path := l.resolver.ResolveName(name)
	if path == "" {
		l.logger.Warn("Cannot resolve application name", zap.String("name", name))
		l.metrics.RecordLaunch(monitoring.StrategyUnresolved, monitoring.ResultFailure)
		if request.IsValid() {
			l.core.Close(request)
		}
		return false, nil
	}

	delegated, request := l.TryContentHandler(owner, path, request)
	if delegated {
		l.metrics.RecordLaunch(monitoring.StrategyContentHandler, monitoring.ResultSuccess)
		return true, nil
	}

	proc := l.LaunchProcess(path, request)
	if proc == nil {
		l.metrics.RecordLaunch(monitoring.StrategyProcess, monitoring.ResultFailure)
		return false, nil
	}
	l.metrics.RecordLaunch(monitoring.StrategyProcess, monitoring.ResultSuccess)
	return true, proc
}
