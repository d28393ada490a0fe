// Package loop provides the single-threaded dispatch loop the manager
// runs on: a task queue plus a handle watcher delivering asynchronous wait
// completions as tasks.
package loop

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// ErrStopped is returned by Invoke once the loop has quit.
var ErrStopped = errors.New("loop stopped")

// watchBatch bounds how many decided waits one watcher pass collects.
const watchBatch = 16

// Loop runs posted tasks one at a time on the goroutine that calls Run.
type Loop struct {
	core   *system.Core
	logger *zap.Logger

	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}

	quit     chan struct{}
	quitOnce sync.Once

	waitSet     system.Handle
	waitersMu   sync.Mutex
	waiters     map[uint64]*Waiter
	nextCookie  uint64
	watcherDone chan struct{}
	closeOnce   sync.Once
}

// New creates a loop and starts its handle watcher.
func New(core *system.Core, logger *zap.Logger) (*Loop, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws, err := core.CreateWaitSet(nil)
	if err != nil {
		return nil, err
	}
	l := &Loop{
		core:        core,
		logger:      logger,
		wake:        make(chan struct{}, 1),
		quit:        make(chan struct{}),
		waitSet:     ws,
		waiters:     make(map[uint64]*Waiter),
		watcherDone: make(chan struct{}),
	}
	go l.watch()
	return l, nil
}

// PostTask queues task. Safe from any goroutine.
func (l *Loop) PostTask(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes tasks until ctx is done or Quit is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if l.drain() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
		}
	}
}

// drain runs queued tasks and reports whether the loop quit meanwhile.
func (l *Loop) drain() bool {
	for {
		l.mu.Lock()
		batch := l.tasks
		l.tasks = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return false
		}
		for _, task := range batch {
			select {
			case <-l.quit:
				return true
			default:
			}
			task()
		}
	}
}

// Quit makes Run return after the current task.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// Done is closed once Quit has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.quit
}

// Invoke runs fn on the loop and waits for it to finish.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.PostTask(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return ErrStopped
	}
}

// Close quits the loop and stops the handle watcher.
func (l *Loop) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.Quit()
		err = l.core.Close(l.waitSet)
		<-l.watcherDone
	})
	return err
}
