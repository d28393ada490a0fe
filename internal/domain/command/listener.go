package command

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Starter is the manager operation commands invoke.
type Starter interface {
	GetOrStartApplicationInstance(name string, overrideArgs []string) *app.Instance
}

// Listener executes commands read from one message pipe. It runs on the
// loop goroutine.
type Listener struct {
	core    *system.Core
	loop    *loop.Loop
	starter Starter
	logger  *zap.Logger
	metrics *monitoring.Metrics

	handle system.Handle
	waiter *loop.Waiter
}

// NewListener creates an idle listener.
func NewListener(core *system.Core, lp *loop.Loop, starter Starter, logger *zap.Logger) *Listener {
	return &Listener{
		core:    core,
		loop:    lp,
		starter: starter,
		logger:  logger,
		handle:  system.HandleInvalid,
	}
}

// WithMetrics adds command counting.
func (l *Listener) WithMetrics(metrics *monitoring.Metrics) *Listener {
	l.metrics = metrics
	return l
}

// StartListening takes ownership of h and starts waiting for commands.
// It panics if h is invalid or the listener already has a pipe.
func (l *Listener) StartListening(h system.Handle) {
	if !h.IsValid() {
		panic("command: StartListening with an invalid handle")
	}
	if l.handle.IsValid() {
		panic("command: listener already has a pipe")
	}
	l.handle = h
	l.waitForCommand()
}

// Listening reports whether the listener holds a pipe.
func (l *Listener) Listening() bool {
	return l.handle.IsValid()
}

// Stop cancels the pending wait and closes the pipe.
func (l *Listener) Stop() {
	l.waiter.Cancel()
	l.waiter = nil
	if l.handle.IsValid() {
		l.core.Close(l.handle)
		l.handle = system.HandleInvalid
	}
}

func (l *Listener) waitForCommand() {
	w, err := l.loop.AsyncWait(l.handle, system.SignalReadable, l.onReadable)
	if err != nil {
		l.logger.Warn("Cannot wait for commands", zap.Error(err))
		l.Stop()
		return
	}
	l.waiter = w
}

func (l *Listener) onReadable(err error, _ system.SignalsState) {
	l.waiter = nil
	if err != nil {
		l.logger.Info("Control pipe closed", zap.Error(err))
		l.Stop()
		return
	}
	l.readCommand()
	if l.handle.IsValid() {
		l.waitForCommand()
	}
}

// readCommand asks for the message size with an empty read and then reads
// the message into a buffer of that size.
func (l *Listener) readCommand() {
	_, _, numBytes, numHandles, err := l.core.ReadMessage(l.handle, 0, 0, system.ReadMessageFlagNone)
	switch {
	case err == nil:
		// Empty datagram.
		return
	case errors.Is(err, system.ErrShouldWait):
		panic("command: control pipe signalled readable without a message")
	case !errors.Is(err, system.ErrResourceExhausted):
		// Peer closed after the signal; the next wait reports it.
		return
	}

	data, handles, _, _, err := l.core.ReadMessage(l.handle, numBytes, numHandles, system.ReadMessageFlagNone)
	if err != nil {
		panic("command: sized read failed: " + err.Error())
	}
	for _, h := range handles {
		l.core.Close(h)
	}
	l.Execute(string(data))
}

// Execute runs one command line.
func (l *Listener) Execute(command string) {
	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return
	}
	name := tokens[0]
	args := append(make([]string, 0, len(tokens)-1), tokens[1:]...)

	l.metrics.IncCommands()
	l.logger.Info("Command received", zap.String("name", name), zap.Strings("args", args))
	l.starter.GetOrStartApplicationInstance(name, args)
}
