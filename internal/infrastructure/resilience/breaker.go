package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Settings configures a Breaker. Zero fields take defaults.
type Settings struct {
	// MaxRequests is the number of trial calls admitted while half-open,
	// and the number of trial successes that close the breaker again.
	MaxRequests uint32
	// Interval clears the counts while closed; zero keeps them.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ReadyToTrip is asked after each failure while closed.
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies the error a call returned.
	IsSuccessful func(err error) bool
	// OnStateChange observes transitions. It runs under the breaker lock.
	OnStateChange func(name string, from State, to State)
}

func (s *Settings) applyDefaults() {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Timeout == 0 {
		s.Timeout = time.Minute
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool { return err == nil }
	}
}

// Counts are the statistics since the last state change or interval.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker is a circuit breaker. Closed passes calls through and counts
// their outcome; open rejects them until Timeout has passed; half-open
// admits MaxRequests trial calls.
type Breaker struct {
	name  string
	cfg   Settings
	clock func() time.Time

	mu    sync.Mutex
	state State
	// epoch changes on every reset; outcomes from an older epoch are
	// dropped.
	epoch    uint64
	counts   Counts
	deadline time.Time
}

// New returns a closed breaker.
func New(name string, settings Settings) *Breaker {
	return newBreaker(name, settings, time.Now)
}

func newBreaker(name string, settings Settings, clock func() time.Time) *Breaker {
	settings.applyDefaults()
	b := &Breaker{name: name, cfg: settings, clock: clock}
	b.reset(clock())
	return b
}

func (b *Breaker) Name() string { return b.name }

// State returns the state as of now.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(b.clock())
	return b.state
}

// Counts returns a copy of the current counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn if the breaker admits the call and records the outcome. A
// rejected call returns ErrCircuitOpen or ErrTooManyRequests without
// running fn. A panic in fn counts as a failure and is not recovered.
func (b *Breaker) Do(fn func() error) error {
	epoch, err := b.admit()
	if err != nil {
		return err
	}

	ok := false
	defer func() { b.record(epoch, ok) }()

	err = fn()
	ok = b.cfg.IsSuccessful(err)
	return err
}

// Call is Do for functions returning a value.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var result T
	err := b.Do(func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.clock())
	switch b.state {
	case StateOpen:
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.cfg.MaxRequests {
			return 0, ErrTooManyRequests
		}
	}
	b.counts.Requests++
	return b.epoch, nil
}

func (b *Breaker) record(epoch uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()
	b.advance(now)
	if epoch != b.epoch {
		return
	}

	if ok {
		b.counts.success()
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.cfg.MaxRequests {
			b.moveTo(StateClosed, now)
		}
		return
	}

	b.counts.failure()
	if b.state == StateHalfOpen || b.cfg.ReadyToTrip(b.counts) {
		b.moveTo(StateOpen, now)
	}
}

// advance applies the expiry of the current state.
func (b *Breaker) advance(now time.Time) {
	if b.deadline.IsZero() || !b.deadline.Before(now) {
		return
	}
	switch b.state {
	case StateClosed:
		b.reset(now)
	case StateOpen:
		b.moveTo(StateHalfOpen, now)
	}
}

func (b *Breaker) moveTo(state State, now time.Time) {
	if b.state == state {
		return
	}
	from := b.state
	b.state = state
	b.reset(now)
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, state)
	}
}

func (b *Breaker) reset(now time.Time) {
	b.epoch++
	b.counts = Counts{}
	b.deadline = time.Time{}
	switch b.state {
	case StateClosed:
		if b.cfg.Interval > 0 {
			b.deadline = now.Add(b.cfg.Interval)
		}
	case StateOpen:
		b.deadline = now.Add(b.cfg.Timeout)
	}
}
