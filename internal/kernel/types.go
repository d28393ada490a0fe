package kernel

import (
	"math"
	"time"
)

// Handle names a kernel object within one Kernel. Zero is never valid.
type Handle uint32

// HandleInvalid is the zero handle.
const HandleInvalid Handle = 0

// Rights is the capability mask attached to a handle.
type Rights uint32

const (
	RightNone        Rights = 0
	RightDuplicate   Rights = 1 << 0
	RightTransfer    Rights = 1 << 1
	RightRead        Rights = 1 << 2
	RightWrite       Rights = 1 << 3
	RightExecute     Rights = 1 << 4
	RightMap         Rights = 1 << 5
	RightGetProperty Rights = 1 << 6
	RightSetProperty Rights = 1 << 7

	// RightSameRights asks replace/duplicate to keep the source rights.
	RightSameRights Rights = 1 << 31
)

const (
	channelRights   = RightDuplicate | RightTransfer | RightRead | RightWrite
	producerRights  = RightDuplicate | RightTransfer | RightWrite | RightGetProperty | RightSetProperty
	consumerRights  = RightDuplicate | RightTransfer | RightRead | RightGetProperty | RightSetProperty
	vmoRights       = RightDuplicate | RightTransfer | RightRead | RightWrite | RightExecute | RightMap | RightGetProperty
	eventPairRights = RightDuplicate | RightTransfer | RightRead | RightWrite
	waitSetRights   = RightRead | RightWrite
)

// Signals is a bit set of object conditions.
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

	// UserSignals are the bits event pairs let callers set and clear.
	UserSignals = SignalSignal0 | SignalSignal1 | SignalSignal2 | SignalSignal3 | SignalSignal4
)

// SignalsState reports which signals hold now and which could still hold.
type SignalsState struct {
	Satisfied   Signals
	Satisfiable Signals
}

// ObjectType identifies the kind of object a handle refers to.
type ObjectType int

const (
	TypeNone ObjectType = iota
	TypeChannel
	TypeDataPipeProducer
	TypeDataPipeConsumer
	TypeVMO
	TypeEventPair
	TypeWaitSet
)

func (t ObjectType) String() string {
	switch t {
	case TypeChannel:
		return "channel"
	case TypeDataPipeProducer:
		return "data-pipe-producer"
	case TypeDataPipeConsumer:
		return "data-pipe-consumer"
	case TypeVMO:
		return "vmo"
	case TypeEventPair:
		return "event-pair"
	case TypeWaitSet:
		return "wait-set"
	default:
		return "none"
	}
}

// TimeInfinite blocks a wait until its outcome is decided.
const TimeInfinite time.Duration = math.MaxInt64

// Limits enforced on channel messages.
const (
	MaxMessageBytes   = 64 * 1024
	MaxMessageHandles = 64
)

// MaxVMOSize bounds a single VMO allocation.
const MaxVMOSize = 1 << 30
