package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/transport"
)

// StartupFD is the descriptor at which a launched process finds its
// application request pipe.
const StartupFD = 3

// ErrInvalidLaunch is returned for an empty path or an invalid request.
var ErrInvalidLaunch = errors.New("invalid launch arguments")

// Process is a launched application process.
type Process interface {
	Pid() int
	// Kill terminates the process. Killing an exited process is a no-op.
	Kill() error
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
	// ExitCode is -1 until Done is closed.
	ExitCode() int
}

// Spawner starts the image at path with request installed at StartupFD.
// Spawn owns request whether or not it succeeds.
type Spawner interface {
	Spawn(path string, request system.Handle) (Process, error)
}

// ExecSpawner spawns real processes with os/exec.
type ExecSpawner struct {
	core    *system.Core
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewExecSpawner returns a spawner guarded by breaker. A nil breaker gets
// a default one that opens after five consecutive failures.
func NewExecSpawner(core *system.Core, breaker *resilience.Breaker, logger *zap.Logger) *ExecSpawner {
	if breaker == nil {
		breaker = NewSpawnBreaker(5, 0, logger)
	}
	return &ExecSpawner{core: core, breaker: breaker, logger: logger}
}

// NewSpawnBreaker builds the breaker used around process creation. Missing
// or non-executable images are the caller's problem and do not count
// against it; fork and exec exhaustion does.
func NewSpawnBreaker(maxFailures uint32, cooldown time.Duration, logger *zap.Logger) *resilience.Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := resilience.Settings{
		Timeout:     cooldown,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Spawn breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	}
	return resilience.New("spawn", settings)
}

// Spawn implements Spawner.
func (s *ExecSpawner) Spawn(path string, request system.Handle) (Process, error) {
	if path == "" || !request.IsValid() {
		if request.IsValid() {
			s.core.Close(request)
		}
		return nil, ErrInvalidLaunch
	}

	startup, err := transport.Export(s.core, request, s.logger)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", path, err)
	}
	// The child holds its own copy once started.
	defer startup.Close()

	cmd := &exec.Cmd{
		Path:       path,
		Args:       []string{path},
		Env:        os.Environ(),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		ExtraFiles: []*os.File{startup},
	}
	if err := s.breaker.Do(cmd.Start); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", path, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go p.reap(s.logger)
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) ExitCode() int {
	select {
	case <-p.done:
		return p.cmd.ProcessState.ExitCode()
	default:
		return -1
	}
}

func (p *execProcess) reap(logger *zap.Logger) {
	err := p.cmd.Wait()
	defer close(p.done)

	fields := []zap.Field{
		zap.String("path", p.cmd.Path),
		zap.Int("pid", p.cmd.Process.Pid),
		zap.Stringer("status", p.cmd.ProcessState),
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fields = append(fields, zap.Error(err))
	}
	logger.Info("Application process exited", fields...)
}
