package kernel

import "sync"

// Data pipe read flags.
const (
	ReadAllOrNone uint32 = 1 << 0
	ReadDiscard   uint32 = 1 << 1
	ReadQuery     uint32 = 1 << 2
	ReadPeek      uint32 = 1 << 3
)

// DefaultDataPipeCapacity is used when a pipe is created with capacity 0.
const DefaultDataPipeCapacity = 1 << 20

type dataPipe struct {
	mu       sync.Mutex
	elemSize uint32
	capacity uint32
	buf      []byte

	producer, consumer *dataPipeEnd
	producerClosed     bool
	consumerClosed     bool

	writeScratch []byte
	writing      bool
	reading      bool
}

type dataPipeEnd struct {
	objectBase
	pipe     *dataPipe
	producer bool
}

func (e *dataPipeEnd) objectType() ObjectType {
	if e.producer {
		return TypeDataPipeProducer
	}
	return TypeDataPipeConsumer
}

func (e *dataPipeEnd) base() *objectBase { return &e.objectBase }

func (e *dataPipeEnd) signals() SignalsState {
	p := e.pipe
	p.mu.Lock()
	defer p.mu.Unlock()

	var s SignalsState
	if e.producer {
		if p.consumerClosed {
			s.Satisfied = SignalPeerClosed
			s.Satisfiable = SignalPeerClosed
			return s
		}
		if uint32(len(p.buf)) < p.capacity && !p.writing {
			s.Satisfied |= SignalWritable
		}
		s.Satisfiable = SignalWritable | SignalPeerClosed
		return s
	}

	if len(p.buf) > 0 {
		s.Satisfied |= SignalReadable
		s.Satisfiable |= SignalReadable
	}
	if p.producerClosed {
		s.Satisfied |= SignalPeerClosed
		s.Satisfiable |= SignalPeerClosed
	} else {
		s.Satisfiable |= SignalReadable | SignalPeerClosed
	}
	return s
}

func (e *dataPipeEnd) onZeroHandles(k *Kernel) {
	p := e.pipe
	p.mu.Lock()
	var other *dataPipeEnd
	if e.producer {
		p.producerClosed = true
		p.writing = false
		p.writeScratch = nil
		other = p.consumer
	} else {
		p.consumerClosed = true
		p.reading = false
		p.buf = nil
		other = p.producer
	}
	p.mu.Unlock()
	other.notify()
}

// DataPipeCreate returns the producer and consumer of a new data pipe.
// capacity 0 selects DefaultDataPipeCapacity rounded to elemSize.
func (k *Kernel) DataPipeCreate(elemSize, capacity uint32) (Handle, Handle, Status) {
	if elemSize == 0 {
		return HandleInvalid, HandleInvalid, ErrInvalidArgs
	}
	if capacity == 0 {
		capacity = DefaultDataPipeCapacity - DefaultDataPipeCapacity%elemSize
		if capacity == 0 {
			capacity = elemSize
		}
	}
	if capacity%elemSize != 0 {
		return HandleInvalid, HandleInvalid, ErrInvalidArgs
	}
	if capacity > MaxVMOSize {
		return HandleInvalid, HandleInvalid, ErrNoMemory
	}
	p := &dataPipe{elemSize: elemSize, capacity: capacity}
	p.producer = &dataPipeEnd{pipe: p, producer: true}
	p.consumer = &dataPipeEnd{pipe: p}
	return k.newHandle(p.producer, producerRights), k.newHandle(p.consumer, consumerRights), OK
}

func (k *Kernel) dataPipeEnd(h Handle, producer bool) (*dataPipeEnd, Status) {
	typ, need := TypeDataPipeConsumer, RightRead
	if producer {
		typ, need = TypeDataPipeProducer, RightWrite
	}
	ref, st := k.lookupType(h, typ, need)
	if st != OK {
		return nil, st
	}
	return ref.obj.(*dataPipeEnd), OK
}

// DataPipeWrite copies as many whole elements of data as fit. With
// allOrNone the write fails with ErrOutOfRange unless everything fits.
func (k *Kernel) DataPipeWrite(h Handle, data []byte, allOrNone bool) (uint32, Status) {
	e, st := k.dataPipeEnd(h, true)
	if st != OK {
		return 0, st
	}
	p := e.pipe
	if uint32(len(data))%p.elemSize != 0 {
		return 0, ErrInvalidArgs
	}

	p.mu.Lock()
	if p.writing {
		p.mu.Unlock()
		return 0, ErrAlreadyBound
	}
	if p.consumerClosed {
		p.mu.Unlock()
		return 0, ErrRemoteClosed
	}
	free := p.capacity - uint32(len(p.buf))
	n := uint32(len(data))
	if allOrNone && n > free {
		p.mu.Unlock()
		return 0, ErrOutOfRange
	}
	if free == 0 && n > 0 {
		p.mu.Unlock()
		return 0, ErrShouldWait
	}
	if n > free {
		n = free - free%p.elemSize
	}
	p.buf = append(p.buf, data[:n]...)
	p.mu.Unlock()

	p.consumer.notify()
	return n, OK
}

// DataPipeBeginWrite hands out a scratch buffer the size of the free
// space. The bytes reach the pipe on DataPipeEndWrite.
func (k *Kernel) DataPipeBeginWrite(h Handle) ([]byte, Status) {
	e, st := k.dataPipeEnd(h, true)
	if st != OK {
		return nil, st
	}
	p := e.pipe
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writing {
		return nil, ErrAlreadyBound
	}
	if p.consumerClosed {
		return nil, ErrRemoteClosed
	}
	free := p.capacity - uint32(len(p.buf))
	if free == 0 {
		return nil, ErrShouldWait
	}
	p.writing = true
	p.writeScratch = make([]byte, free)
	return p.writeScratch, OK
}

// DataPipeEndWrite commits the first written bytes of the scratch buffer.
func (k *Kernel) DataPipeEndWrite(h Handle, written uint32) Status {
	e, st := k.dataPipeEnd(h, true)
	if st != OK {
		return st
	}
	p := e.pipe
	p.mu.Lock()
	if !p.writing {
		p.mu.Unlock()
		return ErrBadState
	}
	if written > uint32(len(p.writeScratch)) || written%p.elemSize != 0 {
		p.writing = false
		p.writeScratch = nil
		p.mu.Unlock()
		e.notify()
		return ErrInvalidArgs
	}
	if !p.consumerClosed {
		p.buf = append(p.buf, p.writeScratch[:written]...)
	}
	p.writing = false
	p.writeScratch = nil
	p.mu.Unlock()

	e.notify()
	p.consumer.notify()
	return OK
}

// DataPipeRead reads up to max bytes. Flags select query (report the
// readable byte count), discard, peek and all-or-none behavior.
func (k *Kernel) DataPipeRead(h Handle, max uint32, flags uint32) ([]byte, uint32, Status) {
	e, st := k.dataPipeEnd(h, false)
	if st != OK {
		return nil, 0, st
	}
	p := e.pipe
	if flags&ReadQuery != 0 && flags&(ReadDiscard|ReadPeek) != 0 {
		return nil, 0, ErrInvalidArgs
	}
	if flags&ReadDiscard != 0 && flags&ReadPeek != 0 {
		return nil, 0, ErrInvalidArgs
	}

	p.mu.Lock()
	if p.reading {
		p.mu.Unlock()
		return nil, 0, ErrAlreadyBound
	}
	avail := uint32(len(p.buf))
	if flags&ReadQuery != 0 {
		p.mu.Unlock()
		return nil, avail, OK
	}
	if max%p.elemSize != 0 {
		p.mu.Unlock()
		return nil, 0, ErrInvalidArgs
	}
	if avail == 0 {
		closed := p.producerClosed
		p.mu.Unlock()
		if closed {
			return nil, 0, ErrRemoteClosed
		}
		return nil, 0, ErrShouldWait
	}
	if flags&ReadAllOrNone != 0 && max > avail {
		p.mu.Unlock()
		return nil, 0, ErrOutOfRange
	}
	n := max
	if n > avail {
		n = avail
	}
	var out []byte
	if flags&ReadDiscard == 0 {
		out = append([]byte(nil), p.buf[:n]...)
	}
	if flags&ReadPeek == 0 {
		p.buf = append([]byte(nil), p.buf[n:]...)
	}
	p.mu.Unlock()

	if flags&ReadPeek == 0 {
		p.producer.notify()
	}
	return out, n, OK
}

// DataPipeBeginRead exposes the readable bytes without consuming them.
func (k *Kernel) DataPipeBeginRead(h Handle) ([]byte, Status) {
	e, st := k.dataPipeEnd(h, false)
	if st != OK {
		return nil, st
	}
	p := e.pipe
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reading {
		return nil, ErrAlreadyBound
	}
	if len(p.buf) == 0 {
		if p.producerClosed {
			return nil, ErrRemoteClosed
		}
		return nil, ErrShouldWait
	}
	p.reading = true
	return append([]byte(nil), p.buf...), OK
}

// DataPipeEndRead consumes the first read bytes exposed by the matching
// DataPipeBeginRead.
func (k *Kernel) DataPipeEndRead(h Handle, read uint32) Status {
	e, st := k.dataPipeEnd(h, false)
	if st != OK {
		return st
	}
	p := e.pipe
	p.mu.Lock()
	if !p.reading {
		p.mu.Unlock()
		return ErrBadState
	}
	p.reading = false
	if read > uint32(len(p.buf)) || read%p.elemSize != 0 {
		p.mu.Unlock()
		return ErrInvalidArgs
	}
	p.buf = append([]byte(nil), p.buf[read:]...)
	p.mu.Unlock()

	p.producer.notify()
	return OK
}
