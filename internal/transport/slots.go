package transport

import (
	"fmt"
	"io"
	"net"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// exportSlot turns a handle leaving this process into a file descriptor.
// The handle is consumed.
func exportSlot(core *system.Core, h system.Handle, logger *zap.Logger) (byte, *os.File, error) {
	typ, err := core.GetHandleType(h)
	if err != nil {
		return slotNone, nil, err
	}
	switch typ {
	case system.HandleTypeMessagePipe:
		f, err := Export(core, h, logger)
		return slotMessagePipe, f, err

	case system.HandleTypeDataPipeConsumer:
		conn, remote, err := socketPair(unix.SOCK_STREAM, "data-pipe")
		if err != nil {
			core.Close(h)
			return slotNone, nil, err
		}
		go pumpOut(system.NewConsumerReader(core, h), conn, logger)
		return slotDataPipeConsumer, remote, nil

	case system.HandleTypeDataPipeProducer:
		conn, remote, err := socketPair(unix.SOCK_STREAM, "data-pipe")
		if err != nil {
			core.Close(h)
			return slotNone, nil, err
		}
		go pumpIn(conn, system.NewProducerWriter(core, h), logger)
		return slotDataPipeProducer, remote, nil

	case system.HandleTypeSharedBuffer:
		f, err := snapshotBuffer(core, h)
		core.Close(h)
		return slotSharedBuffer, f, err

	default:
		core.Close(h)
		return slotNone, nil, fmt.Errorf("handle type %d cannot cross processes", typ)
	}
}

// importSlot re-creates a handle from a received descriptor.
func importSlot(core *system.Core, kind byte, fd int, logger *zap.Logger) (system.Handle, error) {
	if kind == slotNone {
		return deadHandle(core), nil
	}
	f := os.NewFile(uintptr(fd), "received")
	switch kind {
	case slotMessagePipe:
		return Import(core, f, logger)

	case slotDataPipeConsumer:
		conn, err := fileConn(f)
		if err != nil {
			return system.HandleInvalid, err
		}
		producer, consumer, err := core.CreateDataPipe(nil)
		if err != nil {
			conn.Close()
			return system.HandleInvalid, err
		}
		go pumpIn(conn, system.NewProducerWriter(core, producer), logger)
		return consumer, nil

	case slotDataPipeProducer:
		conn, err := fileConn(f)
		if err != nil {
			return system.HandleInvalid, err
		}
		producer, consumer, err := core.CreateDataPipe(nil)
		if err != nil {
			conn.Close()
			return system.HandleInvalid, err
		}
		go pumpOut(system.NewConsumerReader(core, consumer), conn, logger)
		return producer, nil

	case slotSharedBuffer:
		return mapSharedBuffer(core, f)

	default:
		f.Close()
		return system.HandleInvalid, fmt.Errorf("unknown slot kind %d", kind)
	}
}

// pumpOut copies a local consumer into a stream socket.
func pumpOut(r *system.ConsumerReader, conn *net.UnixConn, logger *zap.Logger) {
	defer r.Close()
	defer conn.Close()
	if _, err := io.Copy(conn, r); err != nil {
		logger.Debug("Data pipe pump ended", zap.Error(err))
	}
}

// pumpIn copies a stream socket into a local producer.
func pumpIn(conn *net.UnixConn, w *system.ProducerWriter, logger *zap.Logger) {
	defer w.Close()
	defer conn.Close()
	if _, err := io.Copy(w, conn); err != nil {
		logger.Debug("Data pipe pump ended", zap.Error(err))
	}
}

// snapshotBuffer copies a shared buffer into a new memfd.
func snapshotBuffer(core *system.Core, h system.Handle) (*os.File, error) {
	info, err := core.GetBufferInformation(h)
	if err != nil {
		return nil, err
	}
	m, err := core.MapBuffer(h, 0, info.NumBytes, system.MapBufferFlagReadOnly)
	if err != nil {
		return nil, err
	}
	defer core.UnmapBuffer(m)

	fd, err := unix.MemfdCreate("shared-buffer", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd: %w", err)
	}
	f := os.NewFile(uintptr(fd), "shared-buffer")
	if _, err := f.Write(m.Bytes()); err != nil {
		f.Close()
		return nil, fmt.Errorf("memfd write: %w", err)
	}
	return f, nil
}

// mapSharedBuffer maps a received memfd and wraps it as a shared buffer.
func mapSharedBuffer(core *system.Core, f *os.File) (system.Handle, error) {
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return system.HandleInvalid, err
	}
	if info.Size() <= 0 {
		return system.HandleInvalid, fmt.Errorf("empty shared buffer")
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return system.HandleInvalid, fmt.Errorf("mmap: %w", err)
	}
	h, err := core.WrapSharedBuffer(data, func() error { return unix.Munmap(data) })
	if err != nil {
		unix.Munmap(data)
		return system.HandleInvalid, err
	}
	return h, nil
}
