package services

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig bounds how many provider failures are tolerated
// before requests are short-circuited, and how the breaker probes recovery.
type CircuitBreakerConfig struct {
	MaxFailures     int
	ResetTimeout    time.Duration
	HalfOpenMaxSucc int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:     5,
		ResetTimeout:    30 * time.Second,
		HalfOpenMaxSucc: 3,
	}
}

type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

var breakerStateNames = map[CircuitBreakerState]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half_open",
}

func (s CircuitBreakerState) String() string {
	if name, ok := breakerStateNames[s]; ok {
		return name
	}
	return "closed"
}

// StateChangeFunc observes breaker transitions. It runs with the breaker
// lock held and must not call back into the breaker.
type StateChangeFunc func(name string, from, to CircuitBreakerState)

type CircuitBreaker struct {
	name     string
	cfg      CircuitBreakerConfig
	onChange StateChangeFunc
	now      func() time.Time

	mu        sync.Mutex
	state     CircuitBreakerState
	failures  int
	probes    int
	trippedAt time.Time
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, onChange StateChangeFunc) CircuitBreakerInterface {
	return &CircuitBreaker{
		name:     name,
		cfg:      cfg,
		onChange: onChange,
		now:      time.Now,
	}
}

// IsOpen reports whether calls should be short-circuited. An open breaker
// whose reset timeout has elapsed moves to half-open and lets calls through.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.trippedAt) > cb.cfg.ResetTimeout {
		cb.moveTo(StateHalfOpen)
	}
	return cb.state == StateOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes++
		if cb.probes >= cb.cfg.HalfOpenMaxSucc {
			cb.moveTo(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.trippedAt = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.moveTo(StateOpen)
	}
}

// moveTo must be called with mu held
func (cb *CircuitBreaker) moveTo(next CircuitBreakerState) {
	prev := cb.state
	cb.state = next
	cb.probes = 0
	if next == StateClosed {
		cb.failures = 0
	}

	if prev != next && cb.onChange != nil {
		cb.onChange(cb.name, prev, next)
	}
}

func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker without notifying observers
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
}

func (cb *CircuitBreaker) GetFailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
