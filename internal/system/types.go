package system

import (
	"math"
	"time"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"
)

// Handle is a capability token. The zero value is invalid.
type Handle uint32

// HandleInvalid is the zero handle.
const HandleInvalid Handle = 0

// IsValid reports whether h is non-zero. It says nothing about whether the
// handle is still open.
func (h Handle) IsValid() bool { return h != HandleInvalid }

// Message limits. WriteMessage rejects anything larger.
const (
	MaxMessageBytes   = kernel.MaxMessageBytes
	MaxMessageHandles = kernel.MaxMessageHandles
)

// HandleRights is the rights mask of a handle.
type HandleRights uint32

const (
	HandleRightNone       HandleRights = 0
	HandleRightDuplicate  HandleRights = 1 << 0
	HandleRightTransfer   HandleRights = 1 << 1
	HandleRightRead       HandleRights = 1 << 2
	HandleRightWrite      HandleRights = 1 << 3
	HandleRightExecute    HandleRights = 1 << 4
	HandleRightMap        HandleRights = 1 << 5
	HandleRightGetOptions HandleRights = 1 << 6
	HandleRightSetOptions HandleRights = 1 << 7
)

var rightsMap = [...]struct {
	system HandleRights
	native kernel.Rights
}{
	{HandleRightDuplicate, kernel.RightDuplicate},
	{HandleRightTransfer, kernel.RightTransfer},
	{HandleRightRead, kernel.RightRead},
	{HandleRightWrite, kernel.RightWrite},
	{HandleRightExecute, kernel.RightExecute},
	{HandleRightMap, kernel.RightMap},
	{HandleRightGetOptions, kernel.RightGetProperty},
	{HandleRightSetOptions, kernel.RightSetProperty},
}

func rightsFromNative(r kernel.Rights) HandleRights {
	var out HandleRights
	for _, m := range rightsMap {
		if r&m.native != 0 {
			out |= m.system
		}
	}
	return out
}

func rightsToNative(r HandleRights) kernel.Rights {
	var out kernel.Rights
	for _, m := range rightsMap {
		if r&m.system != 0 {
			out |= m.native
		}
	}
	return out
}

// Signals is a set of handle conditions.
type Signals uint32

const (
	SignalNone       Signals = 0
	SignalReadable   Signals = 1 << 0
	SignalWritable   Signals = 1 << 1
	SignalPeerClosed Signals = 1 << 2
	SignalSignal0    Signals = 1 << 3
	SignalSignal1    Signals = 1 << 4
	SignalSignal2    Signals = 1 << 5
	SignalSignal3    Signals = 1 << 6
	SignalSignal4    Signals = 1 << 7

	UserSignals = SignalSignal0 | SignalSignal1 | SignalSignal2 | SignalSignal3 | SignalSignal4
)

// SignalsState reports the satisfied and the still satisfiable signals of
// a handle.
type SignalsState struct {
	Satisfied   Signals
	Satisfiable Signals
}

func stateFromNative(s kernel.SignalsState) SignalsState {
	return SignalsState{Satisfied: Signals(s.Satisfied), Satisfiable: Signals(s.Satisfiable)}
}

// Deadline is a relative timeout in microseconds.
type Deadline uint64

// DeadlineIndefinite never expires.
const DeadlineIndefinite Deadline = math.MaxUint64

func (d Deadline) duration() time.Duration {
	if d == DeadlineIndefinite || d > Deadline(math.MaxInt64/int64(time.Microsecond)) {
		return kernel.TimeInfinite
	}
	return time.Duration(d) * time.Microsecond
}

// DeadlineFromDuration converts a duration, rounding down to whole
// microseconds. Negative durations poll.
func DeadlineFromDuration(d time.Duration) Deadline {
	if d <= 0 {
		return 0
	}
	return Deadline(d / time.Microsecond)
}

// HandleType identifies the kind of object behind a handle.
type HandleType int

const (
	HandleTypeUnknown HandleType = iota
	HandleTypeMessagePipe
	HandleTypeDataPipeProducer
	HandleTypeDataPipeConsumer
	HandleTypeSharedBuffer
	HandleTypeEventPair
	HandleTypeWaitSet
)

func typeFromNative(t kernel.ObjectType) HandleType {
	switch t {
	case kernel.TypeChannel:
		return HandleTypeMessagePipe
	case kernel.TypeDataPipeProducer:
		return HandleTypeDataPipeProducer
	case kernel.TypeDataPipeConsumer:
		return HandleTypeDataPipeConsumer
	case kernel.TypeVMO:
		return HandleTypeSharedBuffer
	case kernel.TypeEventPair:
		return HandleTypeEventPair
	case kernel.TypeWaitSet:
		return HandleTypeWaitSet
	default:
		return HandleTypeUnknown
	}
}
