package transport

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

const waitLimit = system.Deadline(5 * 1000 * 1000)

// bridged returns a pipe end and its peer reached through a socket bridge.
func bridged(t *testing.T, core *system.Core) (system.Handle, system.Handle) {
	t.Helper()
	local, exported, err := core.CreateMessagePipe(nil)
	require.NoError(t, err)
	f, err := Export(core, exported, zaptest.NewLogger(t))
	require.NoError(t, err)
	far, err := Import(core, f, zaptest.NewLogger(t))
	require.NoError(t, err)
	return local, far
}

func readOne(t *testing.T, core *system.Core, h system.Handle) ([]byte, []system.Handle) {
	t.Helper()
	_, err := core.Wait(h, system.SignalReadable, waitLimit)
	require.NoError(t, err)
	data, handles, err := core.ReadMessageAll(h)
	require.NoError(t, err)
	return data, handles
}

func TestBridgeCarriesMessagesBothWays(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	require.NoError(t, core.WriteMessage(local, []byte("to child"), nil, system.WriteMessageFlagNone))
	data, _ := readOne(t, core, far)
	assert.Equal(t, "to child", string(data))

	require.NoError(t, core.WriteMessage(far, []byte("to parent"), nil, system.WriteMessageFlagNone))
	data, _ = readOne(t, core, local)
	assert.Equal(t, "to parent", string(data))

	require.NoError(t, core.WriteMessage(local, nil, nil, system.WriteMessageFlagNone))
	data, _ = readOne(t, core, far)
	assert.Empty(t, data, "empty messages survive the bridge")
}

func TestBridgePreservesOrder(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	for _, s := range []string{"one", "two", "three"} {
		require.NoError(t, core.WriteMessage(local, []byte(s), nil, system.WriteMessageFlagNone))
	}
	for _, want := range []string{"one", "two", "three"} {
		data, _ := readOne(t, core, far)
		assert.Equal(t, want, string(data))
	}
}

func TestBridgePropagatesPeerClosure(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	require.NoError(t, core.Close(local))
	state, err := core.Wait(far, system.SignalPeerClosed, waitLimit)
	require.NoError(t, err)
	assert.NotZero(t, state.Satisfied&system.SignalPeerClosed)
}

func TestBridgeCarriesMessagePipe(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	x, y, err := core.CreateMessagePipe(nil)
	require.NoError(t, err)
	require.NoError(t, core.WriteMessage(local, []byte("pipe"), []system.Handle{y}, system.WriteMessageFlagNone))

	_, handles := readOne(t, core, far)
	require.Len(t, handles, 1)
	require.NoError(t, core.WriteMessage(handles[0], []byte("through"), nil, system.WriteMessageFlagNone))

	data, _ := readOne(t, core, x)
	assert.Equal(t, "through", string(data))
}

func TestBridgeCarriesDataPipe(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	producer, consumer, err := core.CreateDataPipe(nil)
	require.NoError(t, err)
	require.NoError(t, core.WriteMessage(local, []byte("body"), []system.Handle{consumer}, system.WriteMessageFlagNone))

	w := system.NewProducerWriter(core, producer)
	_, err = w.Write([]byte("file contents"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, handles := readOne(t, core, far)
	require.Len(t, handles, 1)
	typ, err := core.GetHandleType(handles[0])
	require.NoError(t, err)
	assert.Equal(t, system.HandleTypeDataPipeConsumer, typ)

	done := make(chan []byte, 1)
	go func() {
		got, _ := io.ReadAll(system.NewConsumerReader(core, handles[0]))
		done <- got
	}()
	select {
	case got := <-done:
		assert.Equal(t, "file contents", string(got))
	case <-time.After(5 * time.Second):
		t.Fatal("data pipe contents never arrived")
	}
}

func TestBridgeCarriesSharedBuffer(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	buf, err := core.CreateSharedBuffer(16, nil)
	require.NoError(t, err)
	m, err := core.MapBuffer(buf, 0, 16, system.MapBufferFlagNone)
	require.NoError(t, err)
	copy(m.Bytes(), "icu table bytes!")
	require.NoError(t, core.UnmapBuffer(m))

	require.NoError(t, core.WriteMessage(local, nil, []system.Handle{buf}, system.WriteMessageFlagNone))
	_, handles := readOne(t, core, far)
	require.Len(t, handles, 1)

	info, err := core.GetBufferInformation(handles[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(16), info.NumBytes)
	view, err := core.MapBuffer(handles[0], 0, 16, system.MapBufferFlagReadOnly)
	require.NoError(t, err)
	assert.Equal(t, "icu table bytes!", string(view.Bytes()))
	require.NoError(t, core.UnmapBuffer(view))
	require.NoError(t, core.Close(handles[0]))
}

func TestBridgeReplacesUnsupportedHandles(t *testing.T) {
	core := system.NewCore()
	local, far := bridged(t, core)

	ev, _, err := core.CreateEventPair(nil)
	require.NoError(t, err)
	x, _, err := core.CreateMessagePipe(nil)
	require.NoError(t, err)
	require.NoError(t, core.WriteMessage(local, nil, []system.Handle{ev, x}, system.WriteMessageFlagNone))

	_, handles := readOne(t, core, far)
	require.Len(t, handles, 2, "positions are preserved")
	_, err = core.Wait(handles[0], system.SignalPeerClosed, 0)
	assert.NoError(t, err, "placeholder is a pipe with a closed peer")
}

func TestExportRejectsNonPipe(t *testing.T) {
	core := system.NewCore()
	buf, err := core.CreateSharedBuffer(8, nil)
	require.NoError(t, err)
	_, err = Export(core, buf, nil)
	assert.ErrorIs(t, err, ErrNotMessagePipe)
}

func TestFrameRoundTrip(t *testing.T) {
	kinds, payload, err := decodeFrame(encodeFrame([]byte{slotMessagePipe, slotNone}, []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte{slotMessagePipe, slotNone}, kinds)
	assert.Equal(t, "abc", string(payload))
	assert.Equal(t, 1, fdCount(kinds))

	_, _, err = decodeFrame([]byte{5, 1})
	assert.ErrorIs(t, err, errBadFrame)

	tooMany := make([]byte, system.MaxMessageHandles+1)
	_, _, err = decodeFrame(encodeFrame(tooMany, nil))
	assert.ErrorIs(t, err, errBadFrame)
}
