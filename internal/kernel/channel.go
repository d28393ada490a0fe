package kernel

import "sync"

type message struct {
	data    []byte
	handles []*handleRef
}

type channelPair struct {
	mu   sync.Mutex
	ends [2]*channelEnd
}

type channelEnd struct {
	objectBase
	pair   *channelPair
	side   int
	queue  []*message
	closed bool
}

func (e *channelEnd) objectType() ObjectType { return TypeChannel }
func (e *channelEnd) base() *objectBase      { return &e.objectBase }
func (e *channelEnd) peer() *channelEnd      { return e.pair.ends[1-e.side] }

func (e *channelEnd) signals() SignalsState {
	e.pair.mu.Lock()
	defer e.pair.mu.Unlock()

	var s SignalsState
	if len(e.queue) > 0 {
		s.Satisfied |= SignalReadable
		s.Satisfiable |= SignalReadable
	}
	if e.peer().closed {
		s.Satisfied |= SignalPeerClosed
		s.Satisfiable |= SignalPeerClosed
	} else {
		s.Satisfied |= SignalWritable
		s.Satisfiable |= SignalReadable | SignalWritable | SignalPeerClosed
	}
	return s
}

func (e *channelEnd) onZeroHandles(k *Kernel) {
	e.pair.mu.Lock()
	e.closed = true
	pending := e.queue
	e.queue = nil
	peer := e.peer()
	e.pair.mu.Unlock()

	peer.notify()
	for _, m := range pending {
		for _, ref := range m.handles {
			k.destroyRef(ref)
		}
	}
}

// ChannelCreate returns the two ends of a new channel.
func (k *Kernel) ChannelCreate() (Handle, Handle, Status) {
	pair := &channelPair{}
	pair.ends[0] = &channelEnd{pair: pair, side: 0}
	pair.ends[1] = &channelEnd{pair: pair, side: 1}
	return k.newHandle(pair.ends[0], channelRights), k.newHandle(pair.ends[1], channelRights), OK
}

// ChannelWrite queues a message on the peer of h. The handles move into
// the message and leave the table only if the write succeeds.
func (k *Kernel) ChannelWrite(h Handle, data []byte, handles []Handle) Status {
	if len(data) > MaxMessageBytes || len(handles) > MaxMessageHandles {
		return ErrOutOfRange
	}
	ref, st := k.lookupType(h, TypeChannel, RightWrite)
	if st != OK {
		return st
	}
	end := ref.obj.(*channelEnd)

	k.mu.Lock()
	moved := make([]*handleRef, 0, len(handles))
	seen := make(map[Handle]bool, len(handles))
	for _, th := range handles {
		if th == h {
			k.mu.Unlock()
			return ErrNotSupported
		}
		if seen[th] {
			k.mu.Unlock()
			return ErrInvalidArgs
		}
		seen[th] = true
		tref, ok := k.handles[th]
		if !ok {
			k.mu.Unlock()
			return ErrBadHandle
		}
		if tref.rights&RightTransfer == 0 {
			k.mu.Unlock()
			return ErrAccessDenied
		}
		moved = append(moved, tref)
	}

	end.pair.mu.Lock()
	peer := end.peer()
	if peer.closed {
		end.pair.mu.Unlock()
		k.mu.Unlock()
		return ErrRemoteClosed
	}
	msg := &message{data: append([]byte(nil), data...)}
	for i, th := range handles {
		delete(k.handles, th)
		msg.handles = append(msg.handles, &handleRef{obj: moved[i].obj, rights: moved[i].rights})
	}
	peer.queue = append(peer.queue, msg)
	end.pair.mu.Unlock()
	k.mu.Unlock()

	for _, old := range moved {
		old.closed.Store(true)
		old.obj.base().notify()
	}
	peer.notify()
	return OK
}

// ChannelRead dequeues the next message on h. When the message does not
// fit in byteCap/handleCap it reports the required sizes with
// ErrBufferTooSmall and stays queued, unless mayDiscard is set.
func (k *Kernel) ChannelRead(h Handle, byteCap, handleCap uint32, mayDiscard bool) (data []byte, handles []Handle, numBytes, numHandles uint32, st Status) {
	ref, st := k.lookupType(h, TypeChannel, RightRead)
	if st != OK {
		return nil, nil, 0, 0, st
	}
	end := ref.obj.(*channelEnd)

	end.pair.mu.Lock()
	if len(end.queue) == 0 {
		closed := end.peer().closed
		end.pair.mu.Unlock()
		if closed {
			return nil, nil, 0, 0, ErrRemoteClosed
		}
		return nil, nil, 0, 0, ErrShouldWait
	}
	msg := end.queue[0]
	numBytes, numHandles = uint32(len(msg.data)), uint32(len(msg.handles))
	if numBytes > byteCap || numHandles > handleCap {
		if !mayDiscard {
			end.pair.mu.Unlock()
			return nil, nil, numBytes, numHandles, ErrBufferTooSmall
		}
		end.queue = end.queue[1:]
		end.pair.mu.Unlock()
		for _, r := range msg.handles {
			k.destroyRef(r)
		}
		end.notify()
		return nil, nil, numBytes, numHandles, ErrBufferTooSmall
	}
	end.queue = end.queue[1:]
	end.pair.mu.Unlock()

	if len(msg.handles) > 0 {
		handles = make([]Handle, len(msg.handles))
		k.mu.Lock()
		for i, r := range msg.handles {
			handles[i] = k.install(r)
		}
		k.mu.Unlock()
	}
	end.notify()
	return msg.data, handles, numBytes, numHandles, OK
}
