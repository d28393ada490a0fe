package kernel

import "sync"

// Kernel owns a handle table. All methods are safe for concurrent use.
type Kernel struct {
	mu       sync.Mutex
	handles  map[Handle]*handleRef
	next     Handle
	mappings map[*Mapping]struct{}
}

// New returns an empty kernel.
func New() *Kernel {
	return &Kernel{
		handles:  make(map[Handle]*handleRef),
		mappings: make(map[*Mapping]struct{}),
	}
}

// install adds ref to the table. Caller holds k.mu.
func (k *Kernel) install(ref *handleRef) Handle {
	for {
		k.next++
		if k.next != HandleInvalid {
			if _, taken := k.handles[k.next]; !taken {
				break
			}
		}
	}
	k.handles[k.next] = ref
	return k.next
}

// newHandle creates a fresh reference to obj and installs it.
func (k *Kernel) newHandle(obj object, rights Rights) Handle {
	obj.base().retain()
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.install(&handleRef{obj: obj, rights: rights})
}

func (k *Kernel) lookup(h Handle) (*handleRef, Status) {
	if h == HandleInvalid {
		return nil, ErrBadHandle
	}
	k.mu.Lock()
	ref, ok := k.handles[h]
	k.mu.Unlock()
	if !ok {
		return nil, ErrBadHandle
	}
	return ref, OK
}

// lookupType resolves h and checks its type and rights.
func (k *Kernel) lookupType(h Handle, typ ObjectType, need Rights) (*handleRef, Status) {
	ref, st := k.lookup(h)
	if st != OK {
		return nil, st
	}
	if ref.obj.objectType() != typ {
		return nil, ErrWrongType
	}
	if ref.rights&need != need {
		return nil, ErrAccessDenied
	}
	return ref, OK
}

// destroyRef retires a reference that is no longer reachable through the
// table.
func (k *Kernel) destroyRef(ref *handleRef) {
	ref.closed.Store(true)
	ref.obj.base().notify()
	if ref.obj.base().release() {
		ref.obj.onZeroHandles(k)
	}
}

// Close removes h from the table. Waiters blocked on h observe
// ErrHandleClosed.
func (k *Kernel) Close(h Handle) Status {
	if h == HandleInvalid {
		return ErrBadHandle
	}
	k.mu.Lock()
	ref, ok := k.handles[h]
	if ok {
		delete(k.handles, h)
	}
	k.mu.Unlock()
	if !ok {
		return ErrBadHandle
	}
	k.destroyRef(ref)
	return OK
}

// HandleInfo returns the object type and rights of h.
func (k *Kernel) HandleInfo(h Handle) (ObjectType, Rights, Status) {
	ref, st := k.lookup(h)
	if st != OK {
		return TypeNone, RightNone, st
	}
	return ref.obj.objectType(), ref.rights, OK
}

// HandleReplace swaps h for a new handle to the same object carrying
// rights. rights may not exceed the current rights. The swap is atomic: on
// failure h is untouched, on success h is gone.
func (k *Kernel) HandleReplace(h Handle, rights Rights) (Handle, Status) {
	if h == HandleInvalid {
		return HandleInvalid, ErrBadHandle
	}
	k.mu.Lock()
	ref, ok := k.handles[h]
	if !ok {
		k.mu.Unlock()
		return HandleInvalid, ErrBadHandle
	}
	if rights == RightSameRights {
		rights = ref.rights
	}
	if rights&^ref.rights != 0 {
		k.mu.Unlock()
		return HandleInvalid, ErrInvalidArgs
	}
	delete(k.handles, h)
	nh := k.install(&handleRef{obj: ref.obj, rights: rights})
	k.mu.Unlock()

	// The new handle inherits the old reference.
	ref.closed.Store(true)
	ref.obj.base().notify()
	return nh, OK
}

// HandleDuplicate returns a second handle to the object behind h. The
// source needs RightDuplicate and rights may not exceed its rights.
func (k *Kernel) HandleDuplicate(h Handle, rights Rights) (Handle, Status) {
	if h == HandleInvalid {
		return HandleInvalid, ErrBadHandle
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	ref, ok := k.handles[h]
	if !ok {
		return HandleInvalid, ErrBadHandle
	}
	if ref.rights&RightDuplicate == 0 {
		return HandleInvalid, ErrAccessDenied
	}
	if rights == RightSameRights {
		rights = ref.rights
	}
	if rights&^ref.rights != 0 {
		return HandleInvalid, ErrInvalidArgs
	}
	ref.obj.base().retain()
	return k.install(&handleRef{obj: ref.obj, rights: rights}), OK
}

// HandleCount reports the number of live handles in the table.
func (k *Kernel) HandleCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.handles)
}
