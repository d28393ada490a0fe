package icudata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// ProviderURL is the application serving ICU data.
const ProviderURL = "mojo:icu_data_provider"

var (
	// ErrNotFound is returned when the provider has no table for the hash.
	ErrNotFound = errors.New("icu data not found")

	// ErrReleased is returned by a second Release.
	ErrReleased = errors.New("icu data already released")
)

// Connector opens a pipe to a service of another application.
// *application.Shell implements it.
type Connector interface {
	ConnectToService(url, interfaceName string) (system.Handle, error)
}

// Data is a mapped ICU data table.
type Data struct {
	core    *system.Core
	buffer  system.Handle
	mapping *system.Mapping

	mu       sync.Mutex
	released bool
}

// Initialize asks the provider for the table whose SHA-1 is sha1 (hex) and
// maps it read-only. It blocks until the provider answers or ctx ends.
func Initialize(ctx context.Context, core *system.Core, connector Connector, sha1 string) (*Data, error) {
	h, err := connector.ConnectToService(ProviderURL, protocol.ICUDataProviderService)
	if err != nil {
		return nil, fmt.Errorf("connect to icu data provider: %w", err)
	}
	ep := protocol.NewEndpoint(core, h)
	var closeOnce sync.Once
	closePipe := func() { closeOnce.Do(func() { ep.Close() }) }
	defer closePipe()

	if err := ep.Send(protocol.MethodICUDataWithSha1, protocol.ICUDataRequest{Sha1: sha1}); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			closePipe()
		case <-stop:
		}
	}()

	if _, err := core.Wait(h, system.SignalReadable, system.DeadlineIndefinite); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("wait for icu data: %w", err)
	}
	env, handles, err := ep.Receive()
	if err != nil {
		return nil, fmt.Errorf("read icu data response: %w", err)
	}
	var resp protocol.ICUDataResponse
	if env.Method != protocol.MethodICUDataResponse {
		err = fmt.Errorf("unexpected reply %q", env.Method)
	} else {
		err = env.Bind(&resp)
	}
	buffer := protocol.HandleAt(handles, resp.Buffer)
	for _, other := range handles {
		if other != buffer || err != nil {
			core.Close(other)
		}
	}
	if err != nil {
		return nil, err
	}
	if !resp.Found || !buffer.IsValid() {
		if buffer.IsValid() {
			core.Close(buffer)
		}
		return nil, fmt.Errorf("%w: sha1 %s", ErrNotFound, sha1)
	}

	info, err := core.GetBufferInformation(buffer)
	if err != nil {
		core.Close(buffer)
		return nil, err
	}
	mapping, err := core.MapBuffer(buffer, 0, info.NumBytes, system.MapBufferFlagReadOnly)
	if err != nil {
		core.Close(buffer)
		return nil, fmt.Errorf("map icu data: %w", err)
	}
	return &Data{core: core, buffer: buffer, mapping: mapping}, nil
}

// Bytes returns the table. It is nil after Release.
func (d *Data) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	return d.mapping.Bytes()
}

// Release unmaps the table and closes the buffer.
func (d *Data) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	d.released = true
	return errors.Join(d.core.UnmapBuffer(d.mapping), d.core.Close(d.buffer))
}
