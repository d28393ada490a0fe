package app

import (
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Shell serves one instance's Shell pipe. Requests arriving on it are
// attributed to that instance.
type Shell struct {
	manager  *Manager
	owner    string
	endpoint protocol.Endpoint
	waiter   *loop.Waiter
	logger   *zap.Logger
}

func newShell(m *Manager, owner string, endpoint protocol.Endpoint) *Shell {
	return &Shell{
		manager:  m,
		owner:    owner,
		endpoint: endpoint,
		logger:   m.logger.With(zap.String("shell", owner)),
	}
}

// serve arms the next readable wait.
func (s *Shell) serve() {
	w, err := s.manager.loop.AsyncWait(s.endpoint.Handle, system.SignalReadable, s.onReadable)
	if err != nil {
		s.logger.Debug("Shell stopped", zap.Error(err))
		return
	}
	s.waiter = w
}

func (s *Shell) onReadable(err error, _ system.SignalsState) {
	s.waiter = nil
	if err != nil {
		// The application closed its shell or the shell was closed here.
		s.logger.Debug("Shell closed", zap.Error(err))
		return
	}

	for {
		env, handles, err := s.endpoint.Receive()
		if errors.Is(err, system.ErrShouldWait) {
			break
		}
		var sysErr *system.Error
		if errors.As(err, &sysErr) {
			s.logger.Debug("Shell read failed", zap.Error(err))
			return
		}
		if err != nil {
			s.logger.Warn("Dropping malformed shell message", zap.Error(err))
			continue
		}
		s.dispatch(env, handles)
	}
	s.serve()
}

func (s *Shell) dispatch(env *protocol.Envelope, handles []system.Handle) {
	switch env.Method {
	case protocol.MethodConnectToApplication:
		var req protocol.ConnectToApplication
		if err := env.Bind(&req); err != nil {
			s.logger.Warn("Bad ConnectToApplication", zap.Error(err))
			s.closeAll(handles, system.HandleInvalid)
			return
		}
		services := protocol.HandleAt(handles, req.Services)
		s.closeAll(handles, services)
		s.manager.ConnectToApplication(req.ApplicationURL, s.owner, services)
	default:
		s.logger.Warn("Unknown shell method", zap.String("method", env.Method))
		s.closeAll(handles, system.HandleInvalid)
	}
}

func (s *Shell) closeAll(handles []system.Handle, keep system.Handle) {
	for _, h := range handles {
		if h != keep {
			s.manager.core.Close(h)
		}
	}
}

// Close stops serving and closes the pipe.
func (s *Shell) Close() {
	s.waiter.Cancel()
	s.waiter = nil
	s.endpoint.Close()
}
