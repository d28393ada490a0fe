package loop

import (
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Callback receives the outcome of an asynchronous wait on the loop
// goroutine. err follows system.Core.Wait.
type Callback func(err error, state system.SignalsState)

// Waiter is a pending asynchronous wait. It fires at most once.
type Waiter struct {
	loop     *Loop
	cookie   uint64
	handle   system.Handle
	callback Callback
}

// AsyncWait arranges for callback to run on the loop once h satisfies one
// of signals or the wait is otherwise decided.
func (l *Loop) AsyncWait(h system.Handle, signals system.Signals, callback Callback) (*Waiter, error) {
	l.waitersMu.Lock()
	l.nextCookie++
	w := &Waiter{loop: l, cookie: l.nextCookie, handle: h, callback: callback}
	l.waiters[w.cookie] = w
	l.waitersMu.Unlock()

	if err := l.core.WaitSetAdd(l.waitSet, w.cookie, h, signals, nil); err != nil {
		l.take(w.cookie)
		return nil, err
	}
	return w, nil
}

// Cancel withdraws the wait. The callback will not run afterwards when
// Cancel is called on the loop goroutine.
func (w *Waiter) Cancel() {
	if w == nil {
		return
	}
	if w.loop.take(w.cookie) == nil {
		return
	}
	// NotFound means the watcher already claimed the entry; dispatch will
	// find nothing to run.
	_ = w.loop.core.WaitSetRemove(w.loop.waitSet, w.cookie)
}

// Handle returns the watched handle.
func (w *Waiter) Handle() system.Handle { return w.handle }

func (l *Loop) take(cookie uint64) *Waiter {
	l.waitersMu.Lock()
	defer l.waitersMu.Unlock()
	w, ok := l.waiters[cookie]
	if !ok {
		return nil
	}
	delete(l.waiters, cookie)
	return w
}

// Pending reports the number of outstanding asynchronous waits.
func (l *Loop) Pending() int {
	l.waitersMu.Lock()
	defer l.waitersMu.Unlock()
	return len(l.waiters)
}

// watch turns decided wait set entries into tasks until the wait set is
// closed.
func (l *Loop) watch() {
	defer close(l.watcherDone)
	for {
		results, _, err := l.core.WaitSetWait(l.waitSet, system.DeadlineIndefinite, watchBatch)
		if err != nil {
			if !errors.Is(err, system.ErrCancelled) && !errors.Is(err, system.ErrInvalidArgument) {
				l.logger.Error("Handle watcher stopped", zap.Error(err))
			}
			return
		}
		for _, r := range results {
			// Removing claims the entry against a concurrent Cancel.
			if err := l.core.WaitSetRemove(l.waitSet, r.Cookie); err != nil {
				continue
			}
			r := r
			l.PostTask(func() { l.dispatch(r) })
		}
	}
}

func (l *Loop) dispatch(r system.WaitSetResult) {
	w := l.take(r.Cookie)
	if w == nil {
		return
	}
	w.callback(r.Err, r.State)
}
