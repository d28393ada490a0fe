package application

import (
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// MessageHandler handles one message and its handles. Returning false
// stops serving.
type MessageHandler func(env *protocol.Envelope, handles []system.Handle) bool

type server struct {
	lp       *loop.Loop
	endpoint protocol.Endpoint
	handle   MessageHandler
	done     func()
	logger   *zap.Logger
}

// Serve dispatches messages arriving on endpoint to handle, on lp, until
// the peer closes or handle returns false. Serving then closes endpoint
// and calls done, which may be nil. Call it on the loop goroutine.
func Serve(lp *loop.Loop, endpoint protocol.Endpoint, handle MessageHandler, done func(), logger *zap.Logger) error {
	s := &server{lp: lp, endpoint: endpoint, handle: handle, done: done, logger: logger}
	return s.arm()
}

func (s *server) arm() error {
	_, err := s.lp.AsyncWait(s.endpoint.Handle, system.SignalReadable, s.onReadable)
	return err
}

func (s *server) onReadable(err error, _ system.SignalsState) {
	if err != nil {
		s.finish()
		return
	}
	for {
		env, handles, err := s.endpoint.Receive()
		if errors.Is(err, system.ErrShouldWait) {
			break
		}
		var sysErr *system.Error
		if errors.As(err, &sysErr) {
			s.finish()
			return
		}
		if err != nil {
			s.logger.Warn("Dropping malformed message", zap.Error(err))
			continue
		}
		if !s.handle(env, handles) {
			s.finish()
			return
		}
	}
	if err := s.arm(); err != nil {
		s.finish()
	}
}

func (s *server) finish() {
	s.endpoint.Close()
	if s.done != nil {
		s.done()
	}
}

// closeExcept closes every handle but keep.
func closeExcept(core *system.Core, handles []system.Handle, keep ...system.Handle) {
next:
	for _, h := range handles {
		for _, k := range keep {
			if h == k {
				continue next
			}
		}
		core.Close(h)
	}
}
