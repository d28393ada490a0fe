package control

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/tracing"
)

// NewServer creates a gRPC server with srv registered. tracer may be nil.
func NewServer(srv ControlServer, tracer *tracing.Tracer, logger *zap.Logger) *grpc.Server {
	var interceptors []grpc.UnaryServerInterceptor
	if tracer != nil {
		interceptors = append(interceptors, tracing.GRPCUnaryInterceptor(tracer))
	}
	interceptors = append(interceptors, logInterceptor(logger))

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	s.RegisterService(&ServiceDesc, srv)
	return s
}

func logInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := append([]zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}, tracing.Fields(ctx)...)
		logger.Debug("Control call", fields...)
		return resp, err
	}
}
