package kernel

import (
	"sync"
	"sync/atomic"
)

// object is implemented by every kernel object.
type object interface {
	objectType() ObjectType
	base() *objectBase
	// signals returns the current state. Objects without signals report
	// an empty state.
	signals() SignalsState
	// onZeroHandles runs once when the last handle to the object is gone.
	onZeroHandles(k *Kernel)
}

// observer is woken whenever an object it watches may have changed.
type observer struct {
	ch chan struct{}
}

func newObserver() *observer {
	return &observer{ch: make(chan struct{}, 1)}
}

func (o *observer) notify() {
	select {
	case o.ch <- struct{}{}:
	default:
	}
}

// objectBase carries the reference count and observer list shared by all
// objects.
type objectBase struct {
	refs int32

	mu        sync.Mutex
	observers map[*observer]struct{}
}

func (b *objectBase) retain() {
	atomic.AddInt32(&b.refs, 1)
}

// release drops one reference and reports whether it was the last.
func (b *objectBase) release() bool {
	return atomic.AddInt32(&b.refs, -1) == 0
}

func (b *objectBase) addObserver(o *observer) {
	b.mu.Lock()
	if b.observers == nil {
		b.observers = make(map[*observer]struct{})
	}
	b.observers[o] = struct{}{}
	b.mu.Unlock()
}

func (b *objectBase) removeObserver(o *observer) {
	b.mu.Lock()
	delete(b.observers, o)
	b.mu.Unlock()
}

func (b *objectBase) notify() {
	b.mu.Lock()
	for o := range b.observers {
		o.notify()
	}
	b.mu.Unlock()
}

// handleRef is one handle's view of an object. Refs inside messages in
// flight are detached from the table but still hold their reference.
type handleRef struct {
	obj    object
	rights Rights
	closed atomic.Bool
}
