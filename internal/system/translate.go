package system

import "github.com/GriffinCanCode/AgentOS/appmanager/internal/kernel"

// table translates native statuses of one operation. Statuses the
// operation is not expected to produce fall back to a per-table kind.
type table struct {
	op       string
	entries  map[kernel.Status]Kind
	fallback Kind
}

func (t *table) err(st kernel.Status) error {
	if st == kernel.OK {
		return nil
	}
	kind, ok := t.entries[st]
	if !ok {
		kind = t.fallback
	}
	return &Error{Op: t.op, Kind: kind}
}

func newTable(op string, fallback Kind, sets ...map[kernel.Status]Kind) *table {
	t := &table{op: op, entries: make(map[kernel.Status]Kind), fallback: fallback}
	for _, set := range sets {
		for st, kind := range set {
			t.entries[st] = kind
		}
	}
	return t
}

var (
	badArgs = map[kernel.Status]Kind{
		kernel.ErrBadHandle:   InvalidArgument,
		kernel.ErrInvalidArgs: InvalidArgument,
		kernel.ErrWrongType:   InvalidArgument,
	}
	denied = map[kernel.Status]Kind{
		kernel.ErrAccessDenied: PermissionDenied,
	}
	exhausted = map[kernel.Status]Kind{
		kernel.ErrNoMemory: ResourceExhausted,
	}
	waitOutcomes = map[kernel.Status]Kind{
		kernel.ErrHandleClosed: Cancelled,
		kernel.ErrRemoteClosed: Cancelled,
		kernel.ErrTimedOut:     DeadlineExceeded,
		kernel.ErrBadState:     FailedPrecondition,
		kernel.ErrNotSupported: InvalidArgument,
	}
	peerGone = map[kernel.Status]Kind{
		kernel.ErrBadState:     FailedPrecondition,
		kernel.ErrRemoteClosed: FailedPrecondition,
	}
	streaming = map[kernel.Status]Kind{
		kernel.ErrShouldWait:   ShouldWait,
		kernel.ErrOutOfRange:   OutOfRange,
		kernel.ErrAlreadyBound: Busy,
	}
)

var (
	closeTable     = newTable("close", Unknown, badArgs)
	getRightsTable = newTable("get rights", Unknown, badArgs)
	replaceTable   = newTable("replace handle", Unknown, badArgs, denied, exhausted)
	duplicateTable = newTable("duplicate handle", Unknown, badArgs, denied, exhausted)

	waitTable     = newTable("wait", Unknown, badArgs, denied, exhausted, waitOutcomes)
	waitManyTable = newTable("wait many", Unknown, badArgs, denied, exhausted, waitOutcomes)

	createWaitSetTable = newTable("create wait set", Unknown, badArgs, exhausted)
	waitSetAddTable    = newTable("wait set add", Unknown, badArgs, denied, exhausted, map[kernel.Status]Kind{
		kernel.ErrNotSupported:  InvalidArgument,
		kernel.ErrAlreadyExists: AlreadyExists,
	})
	waitSetRemoveTable = newTable("wait set remove", Unknown, badArgs, denied, map[kernel.Status]Kind{
		kernel.ErrNotFound: NotFound,
	})
	waitSetWaitTable = newTable("wait set wait", Unknown, badArgs, denied, exhausted, map[kernel.Status]Kind{
		kernel.ErrHandleClosed: Cancelled,
		kernel.ErrTimedOut:     DeadlineExceeded,
	})

	createMessagePipeTable = newTable("create message pipe", Unknown, badArgs, exhausted)
	writeMessageTable      = newTable("write message", Unknown, badArgs, denied, exhausted, peerGone, map[kernel.Status]Kind{
		kernel.ErrNotSupported: InvalidArgument,
		kernel.ErrOutOfRange:   ResourceExhausted,
	})
	readMessageTable = newTable("read message", Unknown, badArgs, denied, exhausted, peerGone, map[kernel.Status]Kind{
		kernel.ErrShouldWait:     ShouldWait,
		kernel.ErrBufferTooSmall: ResourceExhausted,
	})

	createDataPipeTable = newTable("create data pipe", Unknown, badArgs, exhausted)
	writeDataTable      = newTable("write data", Unknown, badArgs, denied, exhausted, peerGone, streaming)
	beginWriteDataTable = newTable("begin write data", Unknown, badArgs, denied, exhausted, peerGone, streaming)
	endWriteDataTable   = newTable("end write data", Internal, badArgs, denied, map[kernel.Status]Kind{
		kernel.ErrBadState: FailedPrecondition,
	})
	readDataTable      = newTable("read data", Internal, badArgs, denied, exhausted, peerGone, streaming)
	beginReadDataTable = newTable("begin read data", Internal, badArgs, denied, exhausted, peerGone, streaming)
	endReadDataTable   = newTable("end read data", Internal, badArgs, denied, map[kernel.Status]Kind{
		kernel.ErrBadState: FailedPrecondition,
	})

	createSharedBufferTable = newTable("create shared buffer", Unknown, badArgs, exhausted)
	duplicateBufferTable    = newTable("duplicate buffer handle", Unknown, badArgs, denied, exhausted)
	bufferInfoTable         = newTable("get buffer information", Unknown, badArgs, denied)
	mapBufferTable          = newTable("map buffer", Unknown, badArgs, denied, exhausted)
	unmapBufferTable        = newTable("unmap buffer", Unknown, badArgs)

	createEventPairTable = newTable("create event pair", Unknown, badArgs, exhausted)
	signalTable          = newTable("signal", Unknown, badArgs, denied, map[kernel.Status]Kind{
		kernel.ErrRemoteClosed: FailedPrecondition,
	})
)
