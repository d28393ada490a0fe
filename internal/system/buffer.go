package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// MapBufferFlags select the access of a mapping.
type MapBufferFlags uint32

const (
	MapBufferFlagNone     MapBufferFlags = 0
	MapBufferFlagReadOnly MapBufferFlags = 1 << 0
)

// BufferInformation describes a shared buffer.
type BufferInformation struct {
	NumBytes uint64
}

// Mapping is a mapped range of a shared buffer.
type Mapping struct {
	m *kernel.Mapping
}

// Bytes returns the mapped memory. It is nil once unmapped.
func (m *Mapping) Bytes() []byte {
	if m == nil || m.m == nil {
		return nil
	}
	return m.m.Bytes()
}

// CreateSharedBuffer allocates a zeroed shared buffer of numBytes.
func (c *Core) CreateSharedBuffer(numBytes uint64, opts *CreateSharedBufferOptions) (Handle, error) {
	if _, err := opts.Resolve(); err != nil {
		return HandleInvalid, err
	}
	h, st := c.k.VMOCreate(numBytes)
	if st != kernel.OK {
		return HandleInvalid, createSharedBufferTable.err(st)
	}
	return Handle(h), nil
}

// WrapSharedBuffer adopts memory owned elsewhere, such as a region mapped
// from a file descriptor received over a transport. release runs once the
// buffer is unreferenced.
func (c *Core) WrapSharedBuffer(data []byte, release func() error) (Handle, error) {
	h, st := c.k.VMOWrap(data, release)
	if st != kernel.OK {
		return HandleInvalid, createSharedBufferTable.err(st)
	}
	return Handle(h), nil
}

// DuplicateBufferHandle returns a second handle to the same buffer.
func (c *Core) DuplicateBufferHandle(h Handle, opts *DuplicateBufferHandleOptions) (Handle, error) {
	if _, err := opts.Resolve(); err != nil {
		return HandleInvalid, err
	}
	nh, st := c.k.HandleDuplicate(kernel.Handle(h), kernel.RightSameRights)
	if st != kernel.OK {
		return HandleInvalid, duplicateBufferTable.err(st)
	}
	return Handle(nh), nil
}

// GetBufferInformation returns the size of the buffer behind h.
func (c *Core) GetBufferInformation(h Handle) (BufferInformation, error) {
	size, st := c.k.VMOGetSize(kernel.Handle(h))
	if st != kernel.OK {
		return BufferInformation{}, bufferInfoTable.err(st)
	}
	return BufferInformation{NumBytes: size}, nil
}

// MapBuffer maps numBytes of the buffer starting at offset.
func (c *Core) MapBuffer(h Handle, offset, numBytes uint64, flags MapBufferFlags) (*Mapping, error) {
	if flags&^MapBufferFlagReadOnly != 0 {
		return nil, &Error{Op: "map buffer", Kind: Unimplemented}
	}
	native := kernel.MapRead | kernel.MapWrite
	if flags&MapBufferFlagReadOnly != 0 {
		native = kernel.MapRead
	}
	m, st := c.k.VMOMap(kernel.Handle(h), offset, numBytes, native)
	if st != kernel.OK {
		return nil, mapBufferTable.err(st)
	}
	return &Mapping{m: m}, nil
}

// UnmapBuffer releases a mapping. Unmapping twice fails with
// InvalidArgument.
func (c *Core) UnmapBuffer(m *Mapping) error {
	if m == nil {
		return unmapBufferTable.err(kernel.ErrInvalidArgs)
	}
	return unmapBufferTable.err(c.k.Unmap(m.m))
}
