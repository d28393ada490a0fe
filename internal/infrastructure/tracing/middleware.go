package tracing

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithTrace(c.Request.Context(),
			TraceID(c.GetHeader(TraceHeader)),
			SpanID(c.GetHeader(SpanHeader)),
		)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceHeader, string(span.TraceID))
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}

// GRPCUnaryInterceptor creates a gRPC unary interceptor for tracing
func GRPCUnaryInterceptor(tracer *Tracer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = WithTrace(ctx, TraceID(first(md, TraceHeader)), SpanID(first(md, SpanHeader)))
		}

		span, ctx := tracer.StartSpan(ctx, info.FullMethod)
		span.SetTag("rpc.system", "grpc")

		resp, err := handler(ctx, req)
		if err != nil {
			span.SetError(err)
		}
		span.SetTag("rpc.code", status.Code(err).String())
		span.Finish()
		tracer.Submit(span)
		return resp, err
	}
}

// GRPCClientInterceptor creates a gRPC client interceptor for trace propagation
func GRPCClientInterceptor(tracer *Tracer) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		span, ctx := tracer.StartSpan(ctx, method)
		span.SetTag("rpc.system", "grpc")
		span.SetTag("span.kind", "client")

		ctx = metadata.AppendToOutgoingContext(ctx,
			strings.ToLower(TraceHeader), string(span.TraceID),
			strings.ToLower(SpanHeader), string(span.SpanID),
		)

		err := invoker(ctx, method, req, reply, cc, opts...)
		finishRPC(tracer, span, err)
		return err
	}
}

func finishRPC(tracer *Tracer, span *Span, err error) {
	if err != nil {
		span.SetError(err)
	}
	span.SetTag("rpc.code", status.Code(err).String())
	span.Finish()
	tracer.Submit(span)
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
