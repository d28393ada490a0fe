package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// WriteMessageFlags modify WriteMessage. None are defined.
type WriteMessageFlags uint32

const WriteMessageFlagNone WriteMessageFlags = 0

// ReadMessageFlags modify ReadMessage.
type ReadMessageFlags uint32

const (
	ReadMessageFlagNone ReadMessageFlags = 0
	// ReadMessageFlagMayDiscard drops a message that does not fit instead
	// of leaving it queued.
	ReadMessageFlagMayDiscard ReadMessageFlags = 1 << 0
)

// CreateMessagePipe returns the two ends of a new message pipe.
func (c *Core) CreateMessagePipe(opts *CreateMessagePipeOptions) (Handle, Handle, error) {
	if _, err := opts.Resolve(); err != nil {
		return HandleInvalid, HandleInvalid, err
	}
	a, b, st := c.k.ChannelCreate()
	if st != kernel.OK {
		return HandleInvalid, HandleInvalid, createMessagePipeTable.err(st)
	}
	return Handle(a), Handle(b), nil
}

// WriteMessage sends bytes and handles to the peer of h. On success the
// handles belong to the message; on failure the caller keeps them.
func (c *Core) WriteMessage(h Handle, bytes []byte, handles []Handle, flags WriteMessageFlags) error {
	if flags != WriteMessageFlagNone {
		return &Error{Op: "write message", Kind: Unimplemented}
	}
	var hs []kernel.Handle
	if len(handles) > 0 {
		hs = make([]kernel.Handle, len(handles))
		for i, th := range handles {
			hs[i] = kernel.Handle(th)
		}
	}
	return writeMessageTable.err(c.k.ChannelWrite(kernel.Handle(h), bytes, hs))
}

// ReadMessage reads the next message on h if it fits in byteCap bytes and
// handleCap handles. Otherwise it fails with ResourceExhausted and reports
// the required sizes; the message stays queued unless
// ReadMessageFlagMayDiscard is set. An empty queue fails with ShouldWait,
// or FailedPrecondition once the peer is closed.
func (c *Core) ReadMessage(h Handle, byteCap, handleCap uint32, flags ReadMessageFlags) (bytes []byte, handles []Handle, numBytes, numHandles uint32, err error) {
	if flags&^ReadMessageFlagMayDiscard != 0 {
		return nil, nil, 0, 0, &Error{Op: "read message", Kind: Unimplemented}
	}
	data, hs, numBytes, numHandles, st := c.k.ChannelRead(kernel.Handle(h), byteCap, handleCap, flags&ReadMessageFlagMayDiscard != 0)
	if st != kernel.OK {
		return nil, nil, numBytes, numHandles, readMessageTable.err(st)
	}
	if len(hs) > 0 {
		handles = make([]Handle, len(hs))
		for i, th := range hs {
			handles[i] = Handle(th)
		}
	}
	return data, handles, numBytes, numHandles, nil
}

// ReadMessageAll reads the next message whatever its size: it queries the
// size with an empty read, then reads with buffers of that size.
func (c *Core) ReadMessageAll(h Handle) ([]byte, []Handle, error) {
	data, handles, numBytes, numHandles, err := c.ReadMessage(h, 0, 0, ReadMessageFlagNone)
	if err == nil {
		return data, handles, nil
	}
	if KindOf(err) != ResourceExhausted {
		return nil, nil, err
	}
	data, handles, _, _, err = c.ReadMessage(h, numBytes, numHandles, ReadMessageFlagNone)
	return data, handles, err
}
