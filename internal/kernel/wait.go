package kernel

import "time"

// evaluate decides a wait against a signal state. done is false while the
// wanted signals are unsatisfied but still satisfiable.
func evaluate(s SignalsState, want Signals) (st Status, done bool) {
	if s.Satisfied&want != 0 {
		return OK, true
	}
	if s.Satisfiable&want == 0 {
		if s.Satisfied&SignalPeerClosed != 0 {
			return ErrRemoteClosed, true
		}
		return ErrBadState, true
	}
	return OK, false
}

// deadline turns a timeout into a timer channel. A nil channel never fires.
func deadline(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout == TimeInfinite {
		return nil, func() {}
	}
	t := time.NewTimer(timeout)
	return t.C, func() { t.Stop() }
}

func (k *Kernel) waitableRef(h Handle) (*handleRef, Status) {
	ref, st := k.lookup(h)
	if st != OK {
		return nil, st
	}
	if ref.obj.objectType() == TypeWaitSet {
		return nil, ErrNotSupported
	}
	if ref.rights&RightRead == 0 && ref.obj.objectType() != TypeDataPipeProducer {
		return nil, ErrAccessDenied
	}
	return ref, OK
}

// WaitOne blocks until one of signals is satisfied on h, becomes
// unsatisfiable, h is closed, or timeout elapses. A zero timeout polls.
//
// Outcomes: OK when satisfied; ErrHandleClosed when h is closed during
// the wait; ErrRemoteClosed when the signals can no longer be satisfied
// because the peer is gone; ErrBadState when they can no longer be
// satisfied for any other reason; ErrTimedOut on timeout.
func (k *Kernel) WaitOne(h Handle, signals Signals, timeout time.Duration) (SignalsState, Status) {
	ref, st := k.waitableRef(h)
	if st != OK {
		return SignalsState{}, st
	}
	o := newObserver()
	ref.obj.base().addObserver(o)
	defer ref.obj.base().removeObserver(o)

	timer, stop := deadline(timeout)
	defer stop()
	for {
		if ref.closed.Load() {
			return SignalsState{}, ErrHandleClosed
		}
		state := ref.obj.signals()
		if st, done := evaluate(state, signals); done {
			return state, st
		}
		if timeout <= 0 {
			return state, ErrTimedOut
		}
		select {
		case <-o.ch:
		case <-timer:
			return ref.obj.signals(), ErrTimedOut
		}
	}
}

// WaitMany waits on several handles at once. The returned index names the
// handle that decided the wait; when several are decided at once the lowest
// index wins. The index is -1 on timeout.
func (k *Kernel) WaitMany(handles []Handle, signals []Signals, timeout time.Duration) (int, []SignalsState, Status) {
	if len(handles) != len(signals) {
		return -1, nil, ErrInvalidArgs
	}
	refs := make([]*handleRef, len(handles))
	for i, h := range handles {
		ref, st := k.waitableRef(h)
		if st != OK {
			return i, nil, st
		}
		refs[i] = ref
	}

	o := newObserver()
	for _, ref := range refs {
		ref.obj.base().addObserver(o)
		defer ref.obj.base().removeObserver(o)
	}

	timer, stop := deadline(timeout)
	defer stop()
	states := make([]SignalsState, len(refs))
	for {
		index, result := -1, OK
		for i, ref := range refs {
			if ref.closed.Load() {
				if index < 0 {
					index, result = i, ErrHandleClosed
				}
				continue
			}
			states[i] = ref.obj.signals()
			if index >= 0 {
				continue
			}
			if st, done := evaluate(states[i], signals[i]); done {
				index, result = i, st
			}
		}
		if index >= 0 {
			return index, states, result
		}
		if timeout <= 0 {
			return -1, states, ErrTimedOut
		}
		select {
		case <-o.ch:
		case <-timer:
			return -1, states, ErrTimedOut
		}
	}
}
