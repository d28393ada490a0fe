package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// ManagerName is the requestor the manager uses when it connects to
// applications itself.
const ManagerName = "mojo:application_manager"

// Manager orchestrates application lifecycle on top of the table.
type Manager struct {
	core    *system.Core
	loop    *loop.Loop
	table   *Table
	argsFor map[string][]string
	logger  *zap.Logger
	metrics *monitoring.Metrics

	onTerminated func(InstanceTerminated)
	drained      []chan struct{}
}

// NewManager creates a manager. argsFor maps names to the arguments sent
// when they are initialized without an override.
func NewManager(core *system.Core, lp *loop.Loop, l Launcher, argsFor map[string][]string, logger *zap.Logger) *Manager {
	if argsFor == nil {
		argsFor = make(map[string][]string)
	}
	return &Manager{
		core:    core,
		loop:    lp,
		table:   NewTable(core, l, logger.Named("table")),
		argsFor: argsFor,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// OnTerminated registers fn to run on the loop after a terminated
// instance has been removed from the table.
func (m *Manager) OnTerminated(fn func(InstanceTerminated)) *Manager {
	m.onTerminated = fn
	return m
}

// Table exposes the instance table.
func (m *Manager) Table() *Table { return m.table }

// GetOrStartApplicationInstance returns the running instance for name,
// starting and initializing it first when needed. overrideArgs, when
// non-nil, replaces the configured arguments; it only matters for the
// first, initializing call.
func (m *Manager) GetOrStartApplicationInstance(name string, overrideArgs []string) *Instance {
	inst := m.table.GetOrStartApplication(m, name)
	if inst == nil {
		m.logger.Error("Failed to start application", zap.String("name", name))
		return nil
	}
	if !inst.initialized {
		m.initialize(inst, overrideArgs)
	}
	return inst
}

func (m *Manager) initialize(inst *Instance, overrideArgs []string) {
	args := overrideArgs
	if args == nil {
		args = m.argsFor[inst.name]
	}
	inst.initialized = true
	inst.args = args

	shellLocal, shellRemote, err := m.core.CreateMessagePipe(nil)
	if err != nil {
		m.logger.Error("Failed to create shell pipe", zap.String("name", inst.name), zap.Error(err))
	} else {
		inst.shell = newShell(m, inst.name, protocol.NewEndpoint(m.core, shellLocal))
		inst.shell.serve()
	}

	var handles []system.Handle
	msg := protocol.Initialize{Args: args, URL: inst.name}
	handles, msg.Shell = protocol.Attach(handles, shellRemote)
	if err := inst.application.Send(protocol.MethodInitialize, msg, handles...); err != nil {
		m.logger.Warn("Failed to initialize application", zap.String("name", inst.name), zap.Error(err))
	}

	m.watchTermination(inst)
	m.metrics.SetInstancesActive(m.table.Len())
	m.logger.Info("Application started",
		zap.String("name", inst.name),
		zap.Stringer("id", inst.id),
		zap.Strings("args", args),
		zap.Bool("delegated", inst.process == nil))
}

// watchTermination posts InstanceTerminated once the application closes
// its end of the application pipe.
func (m *Manager) watchTermination(inst *Instance) {
	ev := InstanceTerminated{Name: inst.name, ID: inst.id}
	w, err := m.loop.AsyncWait(inst.application.Handle, system.SignalPeerClosed, func(err error, _ system.SignalsState) {
		m.Post(ev)
	})
	if err != nil {
		m.logger.Warn("Cannot watch application", zap.String("name", inst.name), zap.Error(err))
		m.Post(ev)
		return
	}
	inst.watch = w
}

// ConnectToApplication connects requestorName to applicationName, starting
// the latter if needed. services is handed to the application; it is
// closed if the application cannot be started.
func (m *Manager) ConnectToApplication(applicationName, requestorName string, services system.Handle) {
	inst := m.GetOrStartApplicationInstance(applicationName, nil)
	if inst == nil {
		if services.IsValid() {
			m.core.Close(services)
		}
		m.metrics.RecordConnection(monitoring.ResultFailure)
		return
	}

	var handles []system.Handle
	msg := protocol.AcceptConnection{RequestorURL: requestorName, ResolvedURL: applicationName}
	handles, msg.Services = protocol.Attach(handles, services)
	if err := inst.application.Send(protocol.MethodAcceptConnection, msg, handles...); err != nil {
		m.logger.Warn("Failed to deliver connection",
			zap.String("application", applicationName),
			zap.String("requestor", requestorName),
			zap.Error(err))
		m.metrics.RecordConnection(monitoring.ResultFailure)
		return
	}
	m.metrics.RecordConnection(monitoring.ResultSuccess)
}

// StartApplicationUsingContentHandler runs the application behind request
// inside handlerName, which receives response as its input.
func (m *Manager) StartApplicationUsingContentHandler(handlerName string, response *launcher.Response, request system.Handle) {
	inst := m.GetOrStartApplicationInstance(handlerName, nil)
	if inst == nil {
		m.closeHandles(response.Body, request)
		return
	}

	ch, err := m.contentHandler(inst)
	if err != nil {
		m.logger.Warn("Content handler unavailable", zap.String("handler", handlerName), zap.Error(err))
		m.closeHandles(response.Body, request)
		return
	}

	var handles []system.Handle
	msg := protocol.StartApplication{
		Response: protocol.URLResponse{
			URL:        response.URL,
			StatusCode: response.StatusCode,
			MimeType:   response.MimeType,
		},
	}
	handles, msg.Application = protocol.Attach(handles, request)
	handles, msg.Response.Body = protocol.Attach(handles, response.Body)
	if err := ch.Send(protocol.MethodStartApplication, msg, handles...); err != nil {
		m.logger.Warn("Failed to start application in content handler",
			zap.String("handler", handlerName),
			zap.String("url", response.URL),
			zap.Error(err))
	}
}

// contentHandler returns the instance's ContentHandler pipe, asking the
// application for one on first use.
func (m *Manager) contentHandler(inst *Instance) (protocol.Endpoint, error) {
	if inst.contentHandler.IsValid() {
		return inst.contentHandler, nil
	}

	spLocal, spRemote, err := m.core.CreateMessagePipe(nil)
	if err != nil {
		return protocol.Endpoint{}, err
	}
	sp := protocol.NewEndpoint(m.core, spLocal)
	defer sp.Close()

	accept := protocol.AcceptConnection{RequestorURL: ManagerName, ResolvedURL: inst.name, Services: 0}
	if err := inst.application.Send(protocol.MethodAcceptConnection, accept, spRemote); err != nil {
		return protocol.Endpoint{}, err
	}

	chLocal, chRemote, err := m.core.CreateMessagePipe(nil)
	if err != nil {
		return protocol.Endpoint{}, err
	}
	connect := protocol.ConnectToService{InterfaceName: protocol.ContentHandlerService, Pipe: 0}
	if err := sp.Send(protocol.MethodConnectToService, connect, chRemote); err != nil {
		m.core.Close(chLocal)
		return protocol.Endpoint{}, err
	}

	inst.contentHandler = protocol.NewEndpoint(m.core, chLocal)
	return inst.contentHandler, nil
}

// StartInitialApplication starts name with its configured arguments.
func (m *Manager) StartInitialApplication(name string) bool {
	return m.GetOrStartApplicationInstance(name, nil) != nil
}

// StopApplication stops name if it is running.
func (m *Manager) StopApplication(name string) {
	m.table.StopApplication(name)
	m.metrics.SetInstancesActive(m.table.Len())
	m.notifyIfDrained()
}

// RequestQuit sends RequestQuit to every instance and returns a channel
// that is closed once the table is empty. Call it on the loop goroutine.
func (m *Manager) RequestQuit() <-chan struct{} {
	for _, name := range m.table.Names() {
		inst := m.table.Lookup(name)
		if err := inst.application.Send(protocol.MethodRequestQuit, struct{}{}); err != nil {
			m.logger.Debug("RequestQuit not delivered", zap.String("name", name), zap.Error(err))
		}
	}
	ch := make(chan struct{})
	m.drained = append(m.drained, ch)
	m.notifyIfDrained()
	return ch
}

// StopAll destroys every remaining instance. Call it on the loop goroutine.
func (m *Manager) StopAll() {
	for _, name := range m.table.Names() {
		m.logger.Warn("Killing application", zap.String("name", name))
		m.table.StopApplication(name)
	}
	m.metrics.SetInstancesActive(0)
	m.notifyIfDrained()
}

// Shutdown asks every instance to quit and waits up to grace for them to
// exit before stopping the rest. Call it off the loop.
func (m *Manager) Shutdown(ctx context.Context, grace time.Duration) error {
	var drained <-chan struct{}
	if err := m.loop.Invoke(ctx, func() { drained = m.RequestQuit() }); err != nil {
		return err
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-drained:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}
	return m.loop.Invoke(context.WithoutCancel(ctx), m.StopAll)
}

func (m *Manager) notifyIfDrained() {
	if m.table.Len() > 0 {
		return
	}
	for _, ch := range m.drained {
		close(ch)
	}
	m.drained = nil
}

// Instances snapshots the table. Call it on the loop goroutine.
func (m *Manager) Instances() []Info {
	names := m.table.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, m.table.Lookup(name).Info())
	}
	return infos
}

// Snapshot is Instances for callers off the loop.
func (m *Manager) Snapshot(ctx context.Context) ([]Info, error) {
	var infos []Info
	if err := m.loop.Invoke(ctx, func() { infos = m.Instances() }); err != nil {
		return nil, err
	}
	return infos, nil
}

func (m *Manager) closeHandles(handles ...system.Handle) {
	for _, h := range handles {
		if h.IsValid() {
			m.core.Close(h)
		}
	}
}
