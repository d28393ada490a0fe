package protocol

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Endpoint is one end of a message pipe speaking this protocol. The zero
// value is an invalid endpoint.
type Endpoint struct {
	Core   *system.Core
	Handle system.Handle
}

// NewEndpoint wraps h.
func NewEndpoint(core *system.Core, h system.Handle) Endpoint {
	return Endpoint{Core: core, Handle: h}
}

// IsValid reports whether the endpoint holds a handle.
func (e Endpoint) IsValid() bool {
	return e.Core != nil && e.Handle.IsValid()
}

// Send encodes and writes one message. The handles move with it on
// success; on failure they are closed.
func (e Endpoint) Send(method string, body interface{}, handles ...system.Handle) error {
	data, err := Encode(method, body)
	if err != nil {
		e.closeAll(handles)
		return err
	}
	if err := e.Core.WriteMessage(e.Handle, data, handles, system.WriteMessageFlagNone); err != nil {
		e.closeAll(handles)
		return fmt.Errorf("send %s: %w", method, err)
	}
	return nil
}

// Receive reads the next message without blocking. It returns a
// system.ErrShouldWait error when nothing is queued.
func (e Endpoint) Receive() (*Envelope, []system.Handle, error) {
	data, handles, err := e.Core.ReadMessageAll(e.Handle)
	if err != nil {
		return nil, nil, err
	}
	env, err := Decode(data)
	if err != nil {
		e.closeAll(handles)
		return nil, nil, err
	}
	return env, handles, nil
}

// Close closes the handle.
func (e Endpoint) Close() error {
	if !e.IsValid() {
		return nil
	}
	return e.Core.Close(e.Handle)
}

func (e Endpoint) closeAll(handles []system.Handle) {
	for _, h := range handles {
		if h.IsValid() {
			e.Core.Close(h)
		}
	}
}

// HandleAt returns handles[index], or HandleInvalid for NoHandle and
// out-of-range indexes.
func HandleAt(handles []system.Handle, index int) system.Handle {
	if index < 0 || index >= len(handles) {
		return system.HandleInvalid
	}
	return handles[index]
}

// Attach appends h to handles when valid and returns its index, or
// NoHandle.
func Attach(handles []system.Handle, h system.Handle) ([]system.Handle, int) {
	if !h.IsValid() {
		return handles, NoHandle
	}
	return append(handles, h), len(handles)
}
