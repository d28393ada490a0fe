package kernel

import "sync"

// Map flags.
const (
	MapRead  uint32 = 1 << 0
	MapWrite uint32 = 1 << 1
)

type vmo struct {
	objectBase
	mu   sync.Mutex
	data []byte
	free func() error
}

func (v *vmo) objectType() ObjectType  { return TypeVMO }
func (v *vmo) base() *objectBase       { return &v.objectBase }
func (v *vmo) signals() SignalsState   { return SignalsState{} }
func (v *vmo) onZeroHandles(_ *Kernel) { v.drop() }

// drop frees the backing store once no handle or mapping references it.
func (v *vmo) drop() {
	v.mu.Lock()
	free := v.free
	v.free = nil
	v.data = nil
	v.mu.Unlock()
	if free != nil {
		_ = free()
	}
}

// Mapping is a view of a VMO range. It keeps the VMO alive until Unmap.
type Mapping struct {
	obj  *vmo
	data []byte
}

// Bytes returns the mapped range. It is nil after Unmap.
func (m *Mapping) Bytes() []byte { return m.data }

// VMOCreate allocates a zeroed buffer of size bytes.
func (k *Kernel) VMOCreate(size uint64) (Handle, Status) {
	if size == 0 {
		return HandleInvalid, ErrInvalidArgs
	}
	if size > MaxVMOSize {
		return HandleInvalid, ErrNoMemory
	}
	return k.newHandle(&vmo{data: make([]byte, size)}, vmoRights), OK
}

// VMOWrap adopts externally owned memory, such as an mmapped file, as a
// VMO. free runs once the VMO is no longer referenced.
func (k *Kernel) VMOWrap(data []byte, free func() error) (Handle, Status) {
	if len(data) == 0 || len(data) > MaxVMOSize {
		return HandleInvalid, ErrInvalidArgs
	}
	return k.newHandle(&vmo{data: data, free: free}, vmoRights), OK
}

// VMOGetSize reports the size of the VMO behind h.
func (k *Kernel) VMOGetSize(h Handle) (uint64, Status) {
	ref, st := k.lookupType(h, TypeVMO, RightGetProperty)
	if st != OK {
		return 0, st
	}
	v := ref.obj.(*vmo)
	v.mu.Lock()
	defer v.mu.Unlock()
	return uint64(len(v.data)), OK
}

// VMOMap maps [offset, offset+length) of the VMO. Writable mappings need
// RightWrite.
func (k *Kernel) VMOMap(h Handle, offset, length uint64, flags uint32) (*Mapping, Status) {
	if flags&^(MapRead|MapWrite) != 0 {
		return nil, ErrInvalidArgs
	}
	need := RightMap | RightRead
	if flags&MapWrite != 0 {
		need |= RightWrite
	}
	ref, st := k.lookupType(h, TypeVMO, need)
	if st != OK {
		return nil, st
	}
	v := ref.obj.(*vmo)
	v.mu.Lock()
	size := uint64(len(v.data))
	if length == 0 || offset > size || length > size-offset {
		v.mu.Unlock()
		return nil, ErrInvalidArgs
	}
	m := &Mapping{obj: v, data: v.data[offset : offset+length : offset+length]}
	v.mu.Unlock()

	v.retain()
	k.mu.Lock()
	k.mappings[m] = struct{}{}
	k.mu.Unlock()
	return m, OK
}

// Unmap releases a mapping returned by VMOMap.
func (k *Kernel) Unmap(m *Mapping) Status {
	if m == nil {
		return ErrInvalidArgs
	}
	k.mu.Lock()
	_, ok := k.mappings[m]
	delete(k.mappings, m)
	k.mu.Unlock()
	if !ok {
		return ErrInvalidArgs
	}
	m.data = nil
	if m.obj.release() {
		m.obj.drop()
	}
	return OK
}
