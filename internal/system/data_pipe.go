package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// WriteDataFlags modify WriteData.
type WriteDataFlags uint32

const (
	WriteDataFlagNone      WriteDataFlags = 0
	WriteDataFlagAllOrNone WriteDataFlags = 1 << 0
)

// ReadDataFlags modify ReadData.
type ReadDataFlags uint32

const (
	ReadDataFlagNone      ReadDataFlags = 0
	ReadDataFlagAllOrNone ReadDataFlags = 1 << 0
	ReadDataFlagDiscard   ReadDataFlags = 1 << 1
	ReadDataFlagQuery     ReadDataFlags = 1 << 2
	ReadDataFlagPeek      ReadDataFlags = 1 << 3
)

// CreateDataPipe returns the producer and consumer ends of a new data pipe.
func (c *Core) CreateDataPipe(opts *CreateDataPipeOptions) (producer, consumer Handle, err error) {
	resolved, err := opts.Resolve()
	if err != nil {
		return HandleInvalid, HandleInvalid, err
	}
	p, cons, st := c.k.DataPipeCreate(*resolved.ElementNumBytes, *resolved.CapacityNumBytes)
	if st != kernel.OK {
		return HandleInvalid, HandleInvalid, createDataPipeTable.err(st)
	}
	return Handle(p), Handle(cons), nil
}

// WriteData writes whole elements of data and reports how many bytes were
// accepted.
func (c *Core) WriteData(producer Handle, data []byte, flags WriteDataFlags) (uint32, error) {
	if flags&^WriteDataFlagAllOrNone != 0 {
		return 0, &Error{Op: "write data", Kind: Unimplemented}
	}
	n, st := c.k.DataPipeWrite(kernel.Handle(producer), data, flags&WriteDataFlagAllOrNone != 0)
	return n, writeDataTable.err(st)
}

// BeginWriteData starts a two-phase write. Bytes copied into the returned
// buffer are committed by EndWriteData.
func (c *Core) BeginWriteData(producer Handle) ([]byte, error) {
	buf, st := c.k.DataPipeBeginWrite(kernel.Handle(producer))
	return buf, beginWriteDataTable.err(st)
}

// EndWriteData commits numBytesWritten bytes of a two-phase write.
func (c *Core) EndWriteData(producer Handle, numBytesWritten uint32) error {
	return endWriteDataTable.err(c.k.DataPipeEndWrite(kernel.Handle(producer), numBytesWritten))
}

// ReadData reads up to max bytes. With ReadDataFlagQuery it returns only
// the number of readable bytes.
func (c *Core) ReadData(consumer Handle, max uint32, flags ReadDataFlags) ([]byte, uint32, error) {
	known := ReadDataFlagAllOrNone | ReadDataFlagDiscard | ReadDataFlagQuery | ReadDataFlagPeek
	if flags&^known != 0 {
		return nil, 0, &Error{Op: "read data", Kind: Unimplemented}
	}
	var native uint32
	if flags&ReadDataFlagAllOrNone != 0 {
		native |= kernel.ReadAllOrNone
	}
	if flags&ReadDataFlagDiscard != 0 {
		native |= kernel.ReadDiscard
	}
	if flags&ReadDataFlagQuery != 0 {
		native |= kernel.ReadQuery
	}
	if flags&ReadDataFlagPeek != 0 {
		native |= kernel.ReadPeek
	}
	data, n, st := c.k.DataPipeRead(kernel.Handle(consumer), max, native)
	return data, n, readDataTable.err(st)
}

// BeginReadData starts a two-phase read exposing every readable byte.
func (c *Core) BeginReadData(consumer Handle) ([]byte, error) {
	buf, st := c.k.DataPipeBeginRead(kernel.Handle(consumer))
	return buf, beginReadDataTable.err(st)
}

// EndReadData consumes numBytesRead bytes of a two-phase read.
func (c *Core) EndReadData(consumer Handle, numBytesRead uint32) error {
	return endReadDataTable.err(c.k.DataPipeEndRead(kernel.Handle(consumer), numBytesRead))
}

// SetDataPipeProducerOptions is not supported by the kernel.
func (c *Core) SetDataPipeProducerOptions(producer Handle, writeThreshold uint32) error {
	return &Error{Op: "set data pipe producer options", Kind: Unimplemented}
}

// SetDataPipeConsumerOptions is not supported by the kernel.
func (c *Core) SetDataPipeConsumerOptions(consumer Handle, readThreshold uint32) error {
	return &Error{Op: "set data pipe consumer options", Kind: Unimplemented}
}
