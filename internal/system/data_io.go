package system

import (
	"errors"
	"io"
)

// ProducerWriter adapts a data pipe producer to io.Writer. Writes block
// until the pipe has room. Close closes the producer, which the consumer
// observes as end of stream.
type ProducerWriter struct {
	core     *Core
	producer Handle
}

// NewProducerWriter takes ownership of producer.
func NewProducerWriter(core *Core, producer Handle) *ProducerWriter {
	return &ProducerWriter{core: core, producer: producer}
}

func (w *ProducerWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := w.core.WriteData(w.producer, p[written:], WriteDataFlagNone)
		written += int(n)
		switch {
		case err == nil:
		case errors.Is(err, ErrShouldWait):
			if _, err := w.core.Wait(w.producer, SignalWritable, DeadlineIndefinite); err != nil {
				return written, err
			}
		default:
			return written, err
		}
	}
	return written, nil
}

// Close closes the producer handle.
func (w *ProducerWriter) Close() error {
	return w.core.Close(w.producer)
}

// ConsumerReader adapts a data pipe consumer to io.Reader. Read returns
// io.EOF once the producer is closed and the pipe is drained.
type ConsumerReader struct {
	core     *Core
	consumer Handle
}

// NewConsumerReader takes ownership of consumer.
func NewConsumerReader(core *Core, consumer Handle) *ConsumerReader {
	return &ConsumerReader{core: core, consumer: consumer}
}

func (r *ConsumerReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		data, _, err := r.core.ReadData(r.consumer, uint32(len(p)), ReadDataFlagNone)
		switch {
		case err == nil:
			return copy(p, data), nil
		case errors.Is(err, ErrShouldWait):
			_, err := r.core.Wait(r.consumer, SignalReadable, DeadlineIndefinite)
			if errors.Is(err, ErrCancelled) {
				// Peer closed with nothing left to read.
				return 0, io.EOF
			}
			if err != nil {
				return 0, err
			}
		case errors.Is(err, ErrFailedPrecondition):
			return 0, io.EOF
		default:
			return 0, err
		}
	}
}

// Close closes the consumer handle.
func (r *ConsumerReader) Close() error {
	return r.core.Close(r.consumer)
}
