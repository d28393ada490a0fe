package application

import (
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Shell is the client side of the manager's Shell service.
type Shell struct {
	endpoint protocol.Endpoint
}

// NewShell wraps the client end of a Shell pipe.
func NewShell(core *system.Core, h system.Handle) *Shell {
	return &Shell{endpoint: protocol.NewEndpoint(core, h)}
}

// ConnectToApplication asks the manager to connect this application to
// url, handing services to it. services may be invalid.
func (s *Shell) ConnectToApplication(url string, services system.Handle) error {
	var handles []system.Handle
	msg := protocol.ConnectToApplication{ApplicationURL: url}
	handles, msg.Services = protocol.Attach(handles, services)
	return s.endpoint.Send(protocol.MethodConnectToApplication, msg, handles...)
}

// ConnectToService connects to url and asks its service provider for
// interfaceName. It returns the local end of the service pipe.
func (s *Shell) ConnectToService(url, interfaceName string) (system.Handle, error) {
	core := s.endpoint.Core
	spLocal, spRemote, err := core.CreateMessagePipe(nil)
	if err != nil {
		return system.HandleInvalid, err
	}
	sp := protocol.NewEndpoint(core, spLocal)
	defer sp.Close()

	if err := s.ConnectToApplication(url, spRemote); err != nil {
		return system.HandleInvalid, err
	}

	local, remote, err := core.CreateMessagePipe(nil)
	if err != nil {
		return system.HandleInvalid, err
	}
	msg := protocol.ConnectToService{InterfaceName: interfaceName, Pipe: 0}
	if err := sp.Send(protocol.MethodConnectToService, msg, remote); err != nil {
		core.Close(local)
		return system.HandleInvalid, err
	}
	return local, nil
}

// Close closes the Shell pipe.
func (s *Shell) Close() error {
	return s.endpoint.Close()
}
