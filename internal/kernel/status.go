package kernel

import "fmt"

// Status is a native kernel result code. Zero is success, failures are
// negative.
type Status int32

const (
	OK                Status = 0
	ErrInternal       Status = -1
	ErrNotSupported   Status = -2
	ErrNotFound       Status = -3
	ErrNoMemory       Status = -4
	ErrInvalidArgs    Status = -10
	ErrBadHandle      Status = -11
	ErrWrongType      Status = -12
	ErrOutOfRange     Status = -14
	ErrBufferTooSmall Status = -15
	ErrBadState       Status = -20
	ErrShouldWait     Status = -22
	ErrTimedOut       Status = -23
	ErrHandleClosed   Status = -24
	ErrRemoteClosed   Status = -25
	ErrAlreadyExists  Status = -26
	ErrAlreadyBound   Status = -27
	ErrAccessDenied   Status = -30
)

var statusNames = map[Status]string{
	OK:                "OK",
	ErrInternal:       "ERR_INTERNAL",
	ErrNotSupported:   "ERR_NOT_SUPPORTED",
	ErrNotFound:       "ERR_NOT_FOUND",
	ErrNoMemory:       "ERR_NO_MEMORY",
	ErrInvalidArgs:    "ERR_INVALID_ARGS",
	ErrBadHandle:      "ERR_BAD_HANDLE",
	ErrWrongType:      "ERR_WRONG_TYPE",
	ErrOutOfRange:     "ERR_OUT_OF_RANGE",
	ErrBufferTooSmall: "ERR_BUFFER_TOO_SMALL",
	ErrBadState:       "ERR_BAD_STATE",
	ErrShouldWait:     "ERR_SHOULD_WAIT",
	ErrTimedOut:       "ERR_TIMED_OUT",
	ErrHandleClosed:   "ERR_HANDLE_CLOSED",
	ErrRemoteClosed:   "ERR_REMOTE_CLOSED",
	ErrAlreadyExists:  "ERR_ALREADY_EXISTS",
	ErrAlreadyBound:   "ERR_ALREADY_BOUND",
	ErrAccessDenied:   "ERR_ACCESS_DENIED",
}

// String returns the symbolic name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(%d)", int32(s))
}
