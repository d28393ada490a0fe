package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// WaitSetResult is one decided wait set entry. Err follows the Wait
// outcomes; a nil Err means the signals were satisfied.
type WaitSetResult struct {
	Cookie uint64
	Err    error
	State  SignalsState
}

// CreateWaitSet returns a new wait set handle.
func (c *Core) CreateWaitSet(opts *CreateWaitSetOptions) (Handle, error) {
	if _, err := opts.Resolve(); err != nil {
		return HandleInvalid, err
	}
	h, st := c.k.WaitSetCreate()
	if st != kernel.OK {
		return HandleInvalid, createWaitSetTable.err(st)
	}
	return Handle(h), nil
}

// WaitSetAdd watches h for signals under cookie. A cookie already in use
// fails with AlreadyExists.
func (c *Core) WaitSetAdd(ws Handle, cookie uint64, h Handle, signals Signals, opts *WaitSetAddOptions) error {
	if _, err := opts.Resolve(); err != nil {
		return err
	}
	return waitSetAddTable.err(c.k.WaitSetAdd(kernel.Handle(ws), cookie, kernel.Handle(h), kernel.Signals(signals)))
}

// WaitSetRemove removes the entry under cookie. An absent cookie fails
// with NotFound.
func (c *Core) WaitSetRemove(ws Handle, cookie uint64) error {
	return waitSetRemoveTable.err(c.k.WaitSetRemove(kernel.Handle(ws), cookie))
}

// WaitSetWait blocks until an entry is decided. It returns at most
// capacity results and the total number of decided entries.
func (c *Core) WaitSetWait(ws Handle, deadline Deadline, capacity uint32) ([]WaitSetResult, uint32, error) {
	native, ready, st := c.k.WaitSetWait(kernel.Handle(ws), deadline.duration(), capacity)
	if st != kernel.OK {
		return nil, 0, waitSetWaitTable.err(st)
	}
	results := make([]WaitSetResult, len(native))
	for i, r := range native {
		results[i] = WaitSetResult{
			Cookie: r.Cookie,
			Err:    waitTable.err(r.Status),
			State:  stateFromNative(r.State),
		}
	}
	return results, ready, nil
}
