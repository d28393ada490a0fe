package command

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

var (
	ErrEmptyCommand = errors.New("empty command")
	ErrRateLimited  = errors.New("command rate limit exceeded")
)

// Feed writes commands into a control pipe. It is safe for concurrent use.
type Feed struct {
	core    *system.Core
	handle  system.Handle
	limiter *rate.Limiter
}

// NewFeed takes ownership of h, the writing end of a control pipe. A nil
// limiter disables rate limiting.
func NewFeed(core *system.Core, h system.Handle, limiter *rate.Limiter) *Feed {
	return &Feed{core: core, handle: h, limiter: limiter}
}

// Submit writes command as one datagram.
func (f *Feed) Submit(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrEmptyCommand
	}
	if f.limiter != nil && !f.limiter.Allow() {
		return ErrRateLimited
	}
	if err := f.core.WriteMessage(f.handle, []byte(command), nil, system.WriteMessageFlagNone); err != nil {
		return fmt.Errorf("submit command: %w", err)
	}
	return nil
}

// Close closes the pipe; the listener stops once it has drained it.
func (f *Feed) Close() error {
	return f.core.Close(f.handle)
}
