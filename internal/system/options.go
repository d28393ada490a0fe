package system

// OptionsVersion1 is the only options layout defined so far. A zero
// Version is read as OptionsVersion1.
const OptionsVersion1 uint32 = 1

// Flags carried by options structs. No flags are defined yet; any set bit
// is reported as Unimplemented.
type (
	CreateMessagePipeFlags      uint32
	CreateDataPipeFlags         uint32
	CreateSharedBufferFlags     uint32
	DuplicateBufferHandleFlags  uint32
	CreateEventPairFlags        uint32
	CreateWaitSetFlags          uint32
	WaitSetAddFlags             uint32
	DataPipeProducerOptionFlags uint32
)

func checkVersion(op string, version uint32) error {
	if version > OptionsVersion1 {
		return &Error{Op: op, Kind: Unimplemented}
	}
	return nil
}

func checkFlags(op string, flags uint32) error {
	if flags != 0 {
		return &Error{Op: op, Kind: Unimplemented}
	}
	return nil
}

// CreateMessagePipeOptions configures CreateMessagePipe.
type CreateMessagePipeOptions struct {
	Version uint32
	Flags   *CreateMessagePipeFlags
}

// Resolve validates the options and fills defaults. A nil receiver is the
// default options value.
func (o *CreateMessagePipeOptions) Resolve() (CreateMessagePipeOptions, error) {
	out := CreateMessagePipeOptions{Version: OptionsVersion1, Flags: new(CreateMessagePipeFlags)}
	if o == nil {
		return out, nil
	}
	if err := checkVersion("create message pipe", o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags("create message pipe", uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// CreateDataPipeOptions configures CreateDataPipe. A nil field takes its
// default: element size 1 and the default capacity.
type CreateDataPipeOptions struct {
	Version          uint32
	Flags            *CreateDataPipeFlags
	ElementNumBytes  *uint32
	CapacityNumBytes *uint32
}

// Resolve validates the options and fills defaults. A zero capacity means
// the default capacity.
func (o *CreateDataPipeOptions) Resolve() (CreateDataPipeOptions, error) {
	const op = "create data pipe"
	elem, capacity := uint32(1), uint32(0)
	out := CreateDataPipeOptions{
		Version:          OptionsVersion1,
		Flags:            new(CreateDataPipeFlags),
		ElementNumBytes:  &elem,
		CapacityNumBytes: &capacity,
	}
	if o == nil {
		return out, nil
	}
	if err := checkVersion(op, o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags(op, uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	if o.ElementNumBytes != nil {
		if *o.ElementNumBytes == 0 {
			return out, &Error{Op: op, Kind: InvalidArgument}
		}
		elem = *o.ElementNumBytes
	}
	if o.CapacityNumBytes != nil {
		capacity = *o.CapacityNumBytes
	}
	if capacity%elem != 0 {
		return out, &Error{Op: op, Kind: InvalidArgument}
	}
	return out, nil
}

// CreateSharedBufferOptions configures CreateSharedBuffer.
type CreateSharedBufferOptions struct {
	Version uint32
	Flags   *CreateSharedBufferFlags
}

// Resolve validates the options.
func (o *CreateSharedBufferOptions) Resolve() (CreateSharedBufferOptions, error) {
	out := CreateSharedBufferOptions{Version: OptionsVersion1, Flags: new(CreateSharedBufferFlags)}
	if o == nil {
		return out, nil
	}
	if err := checkVersion("create shared buffer", o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags("create shared buffer", uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// DuplicateBufferHandleOptions configures DuplicateBufferHandle.
type DuplicateBufferHandleOptions struct {
	Version uint32
	Flags   *DuplicateBufferHandleFlags
}

// Resolve validates the options.
func (o *DuplicateBufferHandleOptions) Resolve() (DuplicateBufferHandleOptions, error) {
	out := DuplicateBufferHandleOptions{Version: OptionsVersion1, Flags: new(DuplicateBufferHandleFlags)}
	if o == nil {
		return out, nil
	}
	if err := checkVersion("duplicate buffer handle", o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags("duplicate buffer handle", uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// CreateEventPairOptions configures CreateEventPair.
type CreateEventPairOptions struct {
	Version uint32
	Flags   *CreateEventPairFlags
}

// Resolve validates the options.
func (o *CreateEventPairOptions) Resolve() (CreateEventPairOptions, error) {
	out := CreateEventPairOptions{Version: OptionsVersion1, Flags: new(CreateEventPairFlags)}
	if o == nil {
		return out, nil
	}
	if err := checkVersion("create event pair", o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags("create event pair", uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// CreateWaitSetOptions configures CreateWaitSet.
type CreateWaitSetOptions struct {
	Version uint32
	Flags   *CreateWaitSetFlags
}

// Resolve validates the options.
func (o *CreateWaitSetOptions) Resolve() (CreateWaitSetOptions, error) {
	out := CreateWaitSetOptions{Version: OptionsVersion1, Flags: new(CreateWaitSetFlags)}
	if o == nil {
		return out, nil
	}
	if err := checkVersion("create wait set", o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags("create wait set", uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// WaitSetAddOptions configures WaitSetAdd.
type WaitSetAddOptions struct {
	Version uint32
	Flags   *WaitSetAddFlags
}

// Resolve validates the options.
func (o *WaitSetAddOptions) Resolve() (WaitSetAddOptions, error) {
	out := WaitSetAddOptions{Version: OptionsVersion1, Flags: new(WaitSetAddFlags)}
	if o == nil {
		return out, nil
	}
	if err := checkVersion("wait set add", o.Version); err != nil {
		return out, err
	}
	if o.Flags != nil {
		if err := checkFlags("wait set add", uint32(*o.Flags)); err != nil {
			return out, err
		}
	}
	return out, nil
}
