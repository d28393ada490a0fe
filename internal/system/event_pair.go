package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// CreateEventPair returns two linked event handles. Each end can raise
// user signals on itself or on its peer.
func (c *Core) CreateEventPair(opts *CreateEventPairOptions) (Handle, Handle, error) {
	if _, err := opts.Resolve(); err != nil {
		return HandleInvalid, HandleInvalid, err
	}
	a, b, st := c.k.EventPairCreate()
	if st != kernel.OK {
		return HandleInvalid, HandleInvalid, createEventPairTable.err(st)
	}
	return Handle(a), Handle(b), nil
}

// Signal clears then sets user signals on h.
func (c *Core) Signal(h Handle, clear, set Signals) error {
	return signalTable.err(c.k.ObjectSignal(kernel.Handle(h), kernel.Signals(clear), kernel.Signals(set)))
}

// SignalPeer clears then sets user signals on the peer of h. It fails with
// FailedPrecondition once the peer is closed.
func (c *Core) SignalPeer(h Handle, clear, set Signals) error {
	return signalTable.err(c.k.ObjectSignalPeer(kernel.Handle(h), kernel.Signals(clear), kernel.Signals(set)))
}
