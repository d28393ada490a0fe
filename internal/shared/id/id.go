// Package id provides identifier generation for the application manager.
//
// Instance ids are prefixed ULIDs (inst_*): lexicographically sortable by
// creation time, so logs and /apps listings read in launch order. Control
// sessions are keyed by random UUIDs (ctl-*), which carry no ordering.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// InstanceID identifies one incarnation of an application. A name that is
// stopped and started again gets a new InstanceID.
type InstanceID string

// SessionID identifies a control session (websocket or gRPC stream).
type SessionID string

const (
	InstancePrefix = "inst"
	SessionPrefix  = "ctl"
)

// source mints monotonic ULIDs: ids drawn within one millisecond still
// sort in draw order.
type source struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var ids = &source{entropy: ulid.Monotonic(rand.Reader, 0), now: time.Now}

func (s *source) next() ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy)
}

func NewInstanceID() InstanceID {
	return InstanceID(InstancePrefix + "_" + ids.next().String())
}

// NewRequestID returns an unprefixed ULID for trace and span ids.
func NewRequestID() string {
	return ids.next().String()
}

func NewSessionID() SessionID {
	return SessionID(SessionPrefix + "-" + uuid.NewString())
}

// Time extracts the creation time embedded in an instance id.
func (i InstanceID) Time() (time.Time, error) {
	raw, ok := strings.CutPrefix(string(i), InstancePrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("instance id %q: missing %s_ prefix", i, InstancePrefix)
	}
	u, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("instance id %q: %w", i, err)
	}
	return ulid.Time(u.Time()), nil
}

func (i InstanceID) String() string { return string(i) }

func (s SessionID) String() string { return string(s) }
