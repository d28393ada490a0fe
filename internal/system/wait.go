package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// Wait blocks until one of signals is satisfied on h or the wait is
// decided otherwise. See the package documentation for the outcomes.
func (c *Core) Wait(h Handle, signals Signals, deadline Deadline) (SignalsState, error) {
	state, st := c.k.WaitOne(kernel.Handle(h), kernel.Signals(signals), deadline.duration())
	return stateFromNative(state), waitTable.err(st)
}

// WaitMany waits on handles[i] for signals[i]. The returned index names
// the handle that decided the wait, lowest index first; it is -1 when no
// handle did (deadline, or mismatched argument lengths).
func (c *Core) WaitMany(handles []Handle, signals []Signals, deadline Deadline) (int, []SignalsState, error) {
	hs := make([]kernel.Handle, len(handles))
	for i, h := range handles {
		hs[i] = kernel.Handle(h)
	}
	ss := make([]kernel.Signals, len(signals))
	for i, s := range signals {
		ss[i] = kernel.Signals(s)
	}
	index, native, st := c.k.WaitMany(hs, ss, deadline.duration())
	var states []SignalsState
	if native != nil {
		states = make([]SignalsState, len(native))
		for i, s := range native {
			states[i] = stateFromNative(s)
		}
	}
	return index, states, waitManyTable.err(st)
}
