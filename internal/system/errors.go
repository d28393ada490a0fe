package system

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation.
type Kind int

const (
	OK Kind = iota
	Cancelled
	Unknown
	InvalidArgument
	DeadlineExceeded
	NotFound
	AlreadyExists
	PermissionDenied
	ResourceExhausted
	FailedPrecondition
	Aborted
	OutOfRange
	Unimplemented
	Internal
	Unavailable
	DataLoss
	Busy
	ShouldWait
)

var kindNames = [...]string{
	OK:                 "ok",
	Cancelled:          "cancelled",
	Unknown:            "unknown",
	InvalidArgument:    "invalid argument",
	DeadlineExceeded:   "deadline exceeded",
	NotFound:           "not found",
	AlreadyExists:      "already exists",
	PermissionDenied:   "permission denied",
	ResourceExhausted:  "resource exhausted",
	FailedPrecondition: "failed precondition",
	Aborted:            "aborted",
	OutOfRange:         "out of range",
	Unimplemented:      "unimplemented",
	Internal:           "internal",
	Unavailable:        "unavailable",
	DataLoss:           "data loss",
	Busy:               "busy",
	ShouldWait:         "should wait",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the only error type returned by this package.
type Error struct {
	Op   string
	Kind Kind
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String()
}

// Is matches any *Error with the same Kind, so the sentinels below work
// with errors.Is regardless of the operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrCancelled          = &Error{Kind: Cancelled}
	ErrUnknown            = &Error{Kind: Unknown}
	ErrInvalidArgument    = &Error{Kind: InvalidArgument}
	ErrDeadlineExceeded   = &Error{Kind: DeadlineExceeded}
	ErrNotFound           = &Error{Kind: NotFound}
	ErrAlreadyExists      = &Error{Kind: AlreadyExists}
	ErrPermissionDenied   = &Error{Kind: PermissionDenied}
	ErrResourceExhausted  = &Error{Kind: ResourceExhausted}
	ErrFailedPrecondition = &Error{Kind: FailedPrecondition}
	ErrOutOfRange         = &Error{Kind: OutOfRange}
	ErrUnimplemented      = &Error{Kind: Unimplemented}
	ErrInternal           = &Error{Kind: Internal}
	ErrBusy               = &Error{Kind: Busy}
	ErrShouldWait         = &Error{Kind: ShouldWait}
)

// KindOf extracts the Kind of err. nil is OK; foreign errors are Unknown.
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
