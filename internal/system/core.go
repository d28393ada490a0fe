package system

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"
)

// Core is the IPC entry point. It owns one handle table; handles are only
// meaningful to the Core that issued them. Methods are safe for concurrent
// use.
type Core struct {
	k     *kernel.Kernel
	epoch time.Time
}

// NewCore returns a Core with an empty handle table.
func NewCore() *Core {
	return &Core{k: kernel.New(), epoch: time.Now()}
}

// GetTimeTicksNow returns monotonic microseconds since the Core was created.
func (c *Core) GetTimeTicksNow() int64 {
	return int64(time.Since(c.epoch) / time.Microsecond)
}

// Close releases h. Waits in progress on h fail with Cancelled.
func (c *Core) Close(h Handle) error {
	return closeTable.err(c.k.Close(kernel.Handle(h)))
}

// GetRights returns the rights of h.
func (c *Core) GetRights(h Handle) (HandleRights, error) {
	_, rights, st := c.k.HandleInfo(kernel.Handle(h))
	if st != kernel.OK {
		return HandleRightNone, getRightsTable.err(st)
	}
	return rightsFromNative(rights), nil
}

// GetHandleType reports what kind of object h refers to.
func (c *Core) GetHandleType(h Handle) (HandleType, error) {
	typ, _, st := c.k.HandleInfo(kernel.Handle(h))
	if st != kernel.OK {
		return HandleTypeUnknown, getRightsTable.err(st)
	}
	return typeFromNative(typ), nil
}

// ReplaceHandleWithReducedRights swaps h for a handle with the rights of h
// minus rightsToRemove. h is invalid afterwards unless an error is returned.
func (c *Core) ReplaceHandleWithReducedRights(h Handle, rightsToRemove HandleRights) (Handle, error) {
	_, current, st := c.k.HandleInfo(kernel.Handle(h))
	if st != kernel.OK {
		return HandleInvalid, replaceTable.err(st)
	}
	want := current &^ rightsToNative(rightsToRemove)
	nh, st := c.k.HandleReplace(kernel.Handle(h), want)
	if st != kernel.OK {
		return HandleInvalid, replaceTable.err(st)
	}
	return Handle(nh), nil
}

// DuplicateHandleWithReducedRights returns a new handle to the same object
// with the rights of h minus rightsToRemove. h needs the duplicate right.
func (c *Core) DuplicateHandleWithReducedRights(h Handle, rightsToRemove HandleRights) (Handle, error) {
	_, current, st := c.k.HandleInfo(kernel.Handle(h))
	if st != kernel.OK {
		return HandleInvalid, duplicateTable.err(st)
	}
	want := current &^ rightsToNative(rightsToRemove)
	nh, st := c.k.HandleDuplicate(kernel.Handle(h), want)
	if st != kernel.OK {
		return HandleInvalid, duplicateTable.err(st)
	}
	return Handle(nh), nil
}

// DuplicateHandle returns a new handle with the same rights as h.
func (c *Core) DuplicateHandle(h Handle) (Handle, error) {
	return c.DuplicateHandleWithReducedRights(h, HandleRightNone)
}
