package application

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Binder takes ownership of a pipe bound to one service.
type Binder func(pipe system.Handle)

// ServeServices answers ServiceProvider.ConnectToService on services.
// Requests for names without a binder have their pipe closed.
func ServeServices(lp *loop.Loop, core *system.Core, services system.Handle, binders map[string]Binder, logger *zap.Logger) error {
	return Serve(lp, protocol.NewEndpoint(core, services), func(env *protocol.Envelope, handles []system.Handle) bool {
		if env.Method != protocol.MethodConnectToService {
			logger.Warn("Unknown service provider method", zap.String("method", env.Method))
			closeExcept(core, handles)
			return true
		}
		var msg protocol.ConnectToService
		if err := env.Bind(&msg); err != nil {
			closeExcept(core, handles)
			return true
		}
		pipe := protocol.HandleAt(handles, msg.Pipe)
		closeExcept(core, handles, pipe)

		bind, ok := binders[msg.InterfaceName]
		if !ok || !pipe.IsValid() {
			logger.Debug("No such service", zap.String("interface", msg.InterfaceName))
			if pipe.IsValid() {
				core.Close(pipe)
			}
			return true
		}
		bind(pipe)
		return true
	}, nil, logger)
}

// StartFunc runs one application for a content handler. It owns request
// and body.
type StartFunc func(request system.Handle, response protocol.URLResponse, body system.Handle)

// ServeContentHandler answers ContentHandler.StartApplication on pipe.
func ServeContentHandler(lp *loop.Loop, core *system.Core, pipe system.Handle, start StartFunc, logger *zap.Logger) error {
	return Serve(lp, protocol.NewEndpoint(core, pipe), func(env *protocol.Envelope, handles []system.Handle) bool {
		if env.Method != protocol.MethodStartApplication {
			logger.Warn("Unknown content handler method", zap.String("method", env.Method))
			closeExcept(core, handles)
			return true
		}
		var msg protocol.StartApplication
		if err := env.Bind(&msg); err != nil {
			closeExcept(core, handles)
			return true
		}
		request := protocol.HandleAt(handles, msg.Application)
		body := protocol.HandleAt(handles, msg.Response.Body)
		closeExcept(core, handles, request, body)
		start(request, msg.Response, body)
		return true
	}, nil, logger)
}
