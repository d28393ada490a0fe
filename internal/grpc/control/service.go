package control

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/command"
)

const (
	ServiceName         = "appmanager.Control"
	executeMethod       = "/" + ServiceName + "/Execute"
	listInstancesMethod = "/" + ServiceName + "/ListInstances"
)

type ExecuteRequest struct {
	Command string `json:"command"`
}

type ExecuteResponse struct {
	Accepted bool   `json:"accepted"`
	Command  string `json:"command"`
}

type ListInstancesRequest struct{}

type ListInstancesResponse struct {
	Instances []app.Info `json:"instances"`
}

// ControlServer is the server API for appmanager.Control.
type ControlServer interface {
	Execute(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
	ListInstances(context.Context, *ListInstancesRequest) (*ListInstancesResponse, error)
}

// ServiceDesc describes appmanager.Control for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "ListInstances", Handler: listInstancesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appmanager/control",
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExecuteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Execute(ctx, req.(*ExecuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listInstancesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListInstancesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).ListInstances(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listInstancesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).ListInstances(ctx, req.(*ListInstancesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Commands accepts control commands. *command.Feed implements it.
type Commands interface {
	Submit(command string) error
}

// Instances snapshots the running instances. *app.Manager implements it.
type Instances interface {
	Snapshot(ctx context.Context) ([]app.Info, error)
}

// Service implements ControlServer over a command feed and the manager.
type Service struct {
	commands  Commands
	instances Instances
	logger    *zap.Logger
}

// NewService creates the control service.
func NewService(commands Commands, instances Instances, logger *zap.Logger) *Service {
	return &Service{commands: commands, instances: instances, logger: logger}
}

// Execute writes the command into the control pipe.
func (s *Service) Execute(_ context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	err := s.commands.Submit(req.Command)
	switch {
	case err == nil:
		return &ExecuteResponse{Accepted: true, Command: req.Command}, nil
	case errors.Is(err, command.ErrEmptyCommand):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, command.ErrRateLimited):
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	default:
		s.logger.Error("Command not delivered", zap.String("command", req.Command), zap.Error(err))
		return nil, status.Error(codes.Unavailable, err.Error())
	}
}

// ListInstances returns the running instances.
func (s *Service) ListInstances(ctx context.Context, _ *ListInstancesRequest) (*ListInstancesResponse, error) {
	infos, err := s.instances.Snapshot(ctx)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}
	return &ListInstancesResponse{Instances: infos}, nil
}
