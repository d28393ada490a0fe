package kernel

import (
	"sync"
	"time"
)

// WaitSetResult reports one decided entry of a wait set.
type WaitSetResult struct {
	Cookie uint64
	Status Status
	State  SignalsState
}

type waitSetEntry struct {
	cookie  uint64
	ref     *handleRef
	signals Signals
}

type waitSet struct {
	objectBase
	mu      sync.Mutex
	entries []*waitSetEntry
}

func (w *waitSet) objectType() ObjectType  { return TypeWaitSet }
func (w *waitSet) base() *objectBase       { return &w.objectBase }
func (w *waitSet) signals() SignalsState   { return SignalsState{} }
func (w *waitSet) onZeroHandles(_ *Kernel) {}

func (w *waitSet) snapshot() []*waitSetEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*waitSetEntry(nil), w.entries...)
}

// WaitSetCreate returns a new, empty wait set.
func (k *Kernel) WaitSetCreate() (Handle, Status) {
	return k.newHandle(&waitSet{}, waitSetRights), OK
}

// WaitSetAdd watches h for signals under cookie. Cookies are unique within
// a set. The entry follows the handle: closing h decides the entry with
// ErrHandleClosed.
func (k *Kernel) WaitSetAdd(ws Handle, cookie uint64, h Handle, signals Signals) Status {
	wref, st := k.lookupType(ws, TypeWaitSet, RightWrite)
	if st != OK {
		return st
	}
	ref, st := k.waitableRef(h)
	if st != OK {
		return st
	}
	set := wref.obj.(*waitSet)
	set.mu.Lock()
	for _, e := range set.entries {
		if e.cookie == cookie {
			set.mu.Unlock()
			return ErrAlreadyExists
		}
	}
	set.entries = append(set.entries, &waitSetEntry{cookie: cookie, ref: ref, signals: signals})
	set.mu.Unlock()
	set.notify()
	return OK
}

// WaitSetRemove drops the entry under cookie.
func (k *Kernel) WaitSetRemove(ws Handle, cookie uint64) Status {
	wref, st := k.lookupType(ws, TypeWaitSet, RightWrite)
	if st != OK {
		return st
	}
	set := wref.obj.(*waitSet)
	set.mu.Lock()
	for i, e := range set.entries {
		if e.cookie == cookie {
			set.entries = append(set.entries[:i], set.entries[i+1:]...)
			set.mu.Unlock()
			set.notify()
			return OK
		}
	}
	set.mu.Unlock()
	return ErrNotFound
}

// WaitSetWait blocks until at least one entry is decided. It returns up to
// capacity results in insertion order together with the total number of
// decided entries. Closing ws during the wait yields ErrHandleClosed.
func (k *Kernel) WaitSetWait(ws Handle, timeout time.Duration, capacity uint32) ([]WaitSetResult, uint32, Status) {
	wref, st := k.lookupType(ws, TypeWaitSet, RightRead)
	if st != OK {
		return nil, 0, st
	}
	set := wref.obj.(*waitSet)

	timer, stop := deadline(timeout)
	defer stop()
	for {
		o := newObserver()
		set.addObserver(o)
		entries := set.snapshot()
		watched := make(map[*objectBase]struct{}, len(entries))
		for _, e := range entries {
			b := e.ref.obj.base()
			if _, ok := watched[b]; !ok {
				watched[b] = struct{}{}
				b.addObserver(o)
			}
		}
		unwatch := func() {
			set.removeObserver(o)
			for b := range watched {
				b.removeObserver(o)
			}
		}

		if wref.closed.Load() {
			unwatch()
			return nil, 0, ErrHandleClosed
		}
		var results []WaitSetResult
		var ready uint32
		for _, e := range entries {
			var r WaitSetResult
			if e.ref.closed.Load() {
				r = WaitSetResult{Cookie: e.cookie, Status: ErrHandleClosed}
			} else {
				state := e.ref.obj.signals()
				st, done := evaluate(state, e.signals)
				if !done {
					continue
				}
				r = WaitSetResult{Cookie: e.cookie, Status: st, State: state}
			}
			ready++
			if uint32(len(results)) < capacity {
				results = append(results, r)
			}
		}
		if ready > 0 {
			unwatch()
			return results, ready, OK
		}
		if timeout <= 0 {
			unwatch()
			return nil, 0, ErrTimedOut
		}
		select {
		case <-o.ch:
			unwatch()
		case <-timer:
			unwatch()
			return nil, 0, ErrTimedOut
		}
	}
}
