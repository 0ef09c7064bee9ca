package redis

import (
	"errors"
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	StateClosed   State = 0 // normal operation, calls pass through
	StateOpen     State = 1 // tripped, calls rejected immediately
	StateHalfOpen State = 2 // one probe call allowed through
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker guards the Redis publisher against a flapping server. After
// maxFailures consecutive failures it opens and rejects calls for
// resetTimeout, then lets a single probe through; the probe's outcome
// decides between closing and reopening.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time

	// Optional, called on every state transition
	OnStateChange func(from, to State)
}

// NewBreaker creates a breaker that trips after maxFailures consecutive
// failures and probes again after resetTimeout.
func NewBreaker(maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Execute runs fn unless the breaker is open and the timeout has not elapsed.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) > b.resetTimeout {
			b.transition(StateHalfOpen)
		} else {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()

		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.transition(StateOpen)
		}
		return err
	}

	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
	b.failures = 0
	return nil
}

// CurrentState returns the breaker state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if to == StateClosed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
