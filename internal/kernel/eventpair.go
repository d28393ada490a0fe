package kernel

import "sync"

type eventPair struct {
	mu   sync.Mutex
	ends [2]*eventPairEnd
}

type eventPairEnd struct {
	objectBase
	pair   *eventPair
	side   int
	user   Signals
	closed bool
}

func (e *eventPairEnd) objectType() ObjectType { return TypeEventPair }
func (e *eventPairEnd) base() *objectBase      { return &e.objectBase }
func (e *eventPairEnd) peer() *eventPairEnd    { return e.pair.ends[1-e.side] }

func (e *eventPairEnd) signals() SignalsState {
	e.pair.mu.Lock()
	defer e.pair.mu.Unlock()
	s := SignalsState{Satisfied: e.user, Satisfiable: UserSignals | SignalPeerClosed}
	if e.peer().closed {
		s.Satisfied |= SignalPeerClosed
	}
	return s
}

func (e *eventPairEnd) onZeroHandles(_ *Kernel) {
	e.pair.mu.Lock()
	e.closed = true
	peer := e.peer()
	e.pair.mu.Unlock()
	peer.notify()
}

// EventPairCreate returns the two ends of a new event pair.
func (k *Kernel) EventPairCreate() (Handle, Handle, Status) {
	pair := &eventPair{}
	pair.ends[0] = &eventPairEnd{pair: pair, side: 0}
	pair.ends[1] = &eventPairEnd{pair: pair, side: 1}
	return k.newHandle(pair.ends[0], eventPairRights), k.newHandle(pair.ends[1], eventPairRights), OK
}

func (k *Kernel) eventPairEnd(h Handle, clear, set Signals) (*eventPairEnd, Status) {
	if (clear|set)&^UserSignals != 0 {
		return nil, ErrInvalidArgs
	}
	ref, st := k.lookupType(h, TypeEventPair, RightWrite)
	if st != OK {
		return nil, st
	}
	return ref.obj.(*eventPairEnd), OK
}

// ObjectSignal clears then sets user signals on the object behind h.
func (k *Kernel) ObjectSignal(h Handle, clear, set Signals) Status {
	e, st := k.eventPairEnd(h, clear, set)
	if st != OK {
		return st
	}
	e.pair.mu.Lock()
	e.user = (e.user &^ clear) | set
	e.pair.mu.Unlock()
	e.notify()
	return OK
}

// ObjectSignalPeer clears then sets user signals on the peer of h.
func (k *Kernel) ObjectSignalPeer(h Handle, clear, set Signals) Status {
	e, st := k.eventPairEnd(h, clear, set)
	if st != OK {
		return st
	}
	e.pair.mu.Lock()
	peer := e.peer()
	if peer.closed {
		e.pair.mu.Unlock()
		return ErrRemoteClosed
	}
	peer.user = (peer.user &^ clear) | set
	e.pair.mu.Unlock()
	peer.notify()
	return OK
}
