package control

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/resilience"
)

// Client calls appmanager.Control through a circuit breaker.
type Client struct {
	conn    *grpc.ClientConn
	addr    string
	breaker *resilience.Breaker
}

// Dial creates a client for addr. Extra options are appended to the
// defaults, which tests use to install a custom dialer.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	conn, err := grpc.NewClient(addr, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial control service: %w", err)
	}

	breaker := resilience.New("control", resilience.Settings{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			switch status.Code(err) {
			case codes.OK, codes.InvalidArgument, codes.ResourceExhausted:
				return true
			}
			return false
		},
	})

	return &Client{conn: conn, addr: addr, breaker: breaker}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute submits command.
func (c *Client) Execute(ctx context.Context, command string) (*ExecuteResponse, error) {
	resp, err := resilience.Call(c.breaker, func() (*ExecuteResponse, error) {
		out := new(ExecuteResponse)
		if err := c.conn.Invoke(ctx, executeMethod, &ExecuteRequest{Command: command}, out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err == resilience.ErrCircuitOpen {
		return nil, fmt.Errorf("control service %s unavailable: circuit breaker open", c.addr)
	}
	return resp, err
}

// ListInstances returns the running instances.
func (c *Client) ListInstances(ctx context.Context) ([]app.Info, error) {
	resp, err := resilience.Call(c.breaker, func() (*ListInstancesResponse, error) {
		out := new(ListInstancesResponse)
		if err := c.conn.Invoke(ctx, listInstancesMethod, &ListInstancesRequest{}, out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err == resilience.ErrCircuitOpen {
		return nil, fmt.Errorf("control service %s unavailable: circuit breaker open", c.addr)
	}
	if err != nil {
		return nil, err
	}
	return resp.Instances, nil
}
