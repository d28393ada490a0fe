package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// ErrNotMessagePipe is returned when a bridge is asked for anything but a
// message pipe end.
var ErrNotMessagePipe = errors.New("handle is not a message pipe")

// Export bridges the message pipe end h to a new socket and returns the
// socket's far end for another process. Export owns h from the call on,
// even when it fails.
func Export(core *system.Core, h system.Handle, logger *zap.Logger) (*os.File, error) {
	typ, err := core.GetHandleType(h)
	if err != nil {
		return nil, fmt.Errorf("export handle: %w", err)
	}
	if typ != system.HandleTypeMessagePipe {
		core.Close(h)
		return nil, ErrNotMessagePipe
	}
	conn, remote, err := socketPair(unix.SOCK_SEQPACKET, "message-pipe")
	if err != nil {
		core.Close(h)
		return nil, err
	}
	newBridge(core, h, conn, logger).start()
	return remote, nil
}

// Import adopts a socket received from another process and returns the
// local message pipe end bridged to it.
func Import(core *system.Core, f *os.File, logger *zap.Logger) (system.Handle, error) {
	conn, err := fileConn(f)
	if err != nil {
		return system.HandleInvalid, err
	}
	local, remote, err := core.CreateMessagePipe(nil)
	if err != nil {
		conn.Close()
		return system.HandleInvalid, fmt.Errorf("import: %w", err)
	}
	newBridge(core, remote, conn, logger).start()
	return local, nil
}

// bridge pumps messages between one pipe end and one SEQPACKET socket.
type bridge struct {
	core   *system.Core
	h      system.Handle
	conn   *net.UnixConn
	logger *zap.Logger
	once   sync.Once
}

func newBridge(core *system.Core, h system.Handle, conn *net.UnixConn, logger *zap.Logger) *bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bridge{core: core, h: h, conn: conn, logger: logger}
}

func (b *bridge) start() {
	go b.outbound()
	go b.inbound()
}

func (b *bridge) closeConn() {
	b.once.Do(func() { b.conn.Close() })
}

// outbound forwards messages read from the pipe to the socket until the
// pipe's peer goes away.
func (b *bridge) outbound() {
	defer b.closeConn()
	for {
		if _, err := b.core.Wait(b.h, system.SignalReadable, system.DeadlineIndefinite); err != nil {
			return
		}
		data, handles, err := b.core.ReadMessageAll(b.h)
		if errors.Is(err, system.ErrShouldWait) {
			continue
		}
		if err != nil {
			return
		}
		if err := b.send(data, handles); err != nil {
			b.logger.Debug("Bridge send failed", zap.Error(err))
			return
		}
	}
}

func (b *bridge) send(data []byte, handles []system.Handle) error {
	kinds := make([]byte, len(handles))
	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for i, h := range handles {
		kind, f, err := exportSlot(b.core, h, b.logger)
		if err != nil {
			b.logger.Warn("Dropping handle that cannot cross processes", zap.Error(err))
			kinds[i] = slotNone
			continue
		}
		kinds[i] = kind
		files = append(files, f)
	}

	var oob []byte
	if len(files) > 0 {
		fds := make([]int, len(files))
		for i, f := range files {
			fds[i] = int(f.Fd())
		}
		oob = unix.UnixRights(fds...)
	}
	_, _, err := b.conn.WriteMsgUnix(encodeFrame(kinds, data), oob, nil)
	return err
}

// inbound delivers datagrams from the socket into the pipe. When the
// socket closes the pipe end is closed, which the local peer observes.
func (b *bridge) inbound() {
	defer b.core.Close(b.h)
	defer b.closeConn()

	buf := make([]byte, maxFrame)
	oob := make([]byte, unix.CmsgSpace(system.MaxMessageHandles*4))
	for {
		n, oobn, flags, _, err := b.conn.ReadMsgUnix(buf, oob)
		if err != nil || n == 0 {
			return
		}
		fds := parseRights(oob[:oobn])
		if flags&(unix.MSG_TRUNC|unix.MSG_CTRUNC) != 0 {
			closeFDs(fds)
			b.logger.Warn("Dropping truncated datagram", zap.Int("bytes", n))
			continue
		}
		kinds, payload, err := decodeFrame(buf[:n])
		if err != nil || fdCount(kinds) != len(fds) {
			closeFDs(fds)
			b.logger.Warn("Dropping malformed datagram", zap.Int("bytes", n))
			continue
		}

		handles := make([]system.Handle, 0, len(kinds))
		next := 0
		for _, kind := range kinds {
			fd := -1
			if kind != slotNone {
				fd = fds[next]
				next++
			}
			h, err := importSlot(b.core, kind, fd, b.logger)
			if err != nil {
				b.logger.Warn("Failed to import handle", zap.Error(err))
				h = deadHandle(b.core)
			}
			handles = append(handles, h)
		}

		data := append([]byte(nil), payload...)
		if err := b.core.WriteMessage(b.h, data, handles, system.WriteMessageFlagNone); err != nil {
			for _, h := range handles {
				b.core.Close(h)
			}
			if errors.Is(err, system.ErrFailedPrecondition) {
				return
			}
			b.logger.Warn("Failed to deliver message", zap.Error(err))
		}
	}
}

func parseRights(oob []byte) []int {
	if len(oob) == 0 {
		return nil
	}
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil
	}
	var fds []int
	for i := range msgs {
		rights, err := unix.ParseUnixRights(&msgs[i])
		if err == nil {
			fds = append(fds, rights...)
		}
	}
	return fds
}

func closeFDs(fds []int) {
	for _, fd := range fds {
		unix.Close(fd)
	}
}

// deadHandle stands in for a handle that could not be carried over. It
// is a pipe end whose peer is already closed, so positions in the
// message stay stable.
func deadHandle(core *system.Core) system.Handle {
	a, b, err := core.CreateMessagePipe(nil)
	if err != nil {
		return system.HandleInvalid
	}
	core.Close(b)
	return a
}
