/*
Package tracing provides lightweight request tracing for the control
surfaces.

# Overview

Every HTTP request and every appmanager.Control call gets a span. Trace
context travels in the X-Trace-ID and X-Span-ID headers (gRPC metadata
for the control service), so an appsh command and the server-side call
it causes share a trace id. Finished spans are logged by a collector
goroutine.

# Usage

	tracer := tracing.New("appmgr", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tracing.GRPCUnaryInterceptor(tracer)),
	)

	conn, err := grpc.NewClient(addr,
		grpc.WithUnaryInterceptor(tracing.GRPCClientInterceptor(tracer)),
	)

# Trace Format

  - X-Trace-ID: identifies the whole request flow
  - X-Span-ID: identifies the current operation
*/
package tracing
