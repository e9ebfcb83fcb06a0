// Package resilience provides the per-upstream circuit breakers that protect
// the gateway against cascading upstream failure. Breakers sit outside the
// HTTP client's retry loop: once a breaker opens, retries cannot reopen it.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/pkg/logging"
)

// Settings configures a single circuit breaker.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker.
	FailureThreshold uint32
	// ResetTimeout is how long an open breaker rejects calls before
	// admitting a probe.
	ResetTimeout time.Duration
	// SuccessThreshold is the number of consecutive successes in half-open
	// required to close the breaker again. It also caps how many calls may
	// be in flight while half-open.
	SuccessThreshold uint32
}

// Breaker states as reported in snapshots and metrics.
const (
	StateClosed   = "CLOSED"
	StateHalfOpen = "HALF_OPEN"
	StateOpen     = "OPEN"
)

// Snapshot is a point-in-time view of one breaker, used by metrics, the
// health surface, and the admin endpoint.
type Snapshot struct {
	Name                 string    `json:"name"`
	State                string    `json:"state"`
	ConsecutiveFailures  uint32    `json:"consecutiveFailures"`
	ConsecutiveSuccesses uint32    `json:"consecutiveSuccesses"`
	LastFailure          time.Time `json:"lastFailure,omitzero"`
	LastSuccess          time.Time `json:"lastSuccess,omitzero"`
	NextAttempt          time.Time `json:"nextAttempt,omitzero"`
	TotalRequests        uint64    `json:"totalRequests"`
	TotalSuccesses       uint64    `json:"totalSuccesses"`
	TotalFailures        uint64    `json:"totalFailures"`
	TotalRejections      uint64    `json:"totalRejections"`
}

// Breaker wraps a gobreaker state machine with the bookkeeping the gateway
// needs: next-attempt deadline, last outcome timestamps, and lifetime totals
// that survive administrative resets.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu              sync.Mutex
	cb              *gobreaker.CircuitBreaker
	nextAttempt     time.Time
	lastFailure     time.Time
	lastSuccess     time.Time
	totalRequests   uint64
	totalSuccesses  uint64
	totalFailures   uint64
	totalRejections uint64
}

func newBreaker(name string, settings Settings, now func() time.Time) *Breaker {
	b := &Breaker{name: name, settings: settings, now: now}
	b.cb = b.newStateMachine()
	return b
}

func (b *Breaker) newStateMachine() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.settings.SuccessThreshold,
		Timeout:     b.settings.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.onStateChange(from, to)
		},
	})
}

func (b *Breaker) onStateChange(from, to gobreaker.State) {
	b.mu.Lock()
	if to == gobreaker.StateOpen {
		b.nextAttempt = b.now().Add(b.settings.ResetTimeout)
	} else {
		b.nextAttempt = time.Time{}
	}
	b.mu.Unlock()
	logging.Info("resilience", "circuit breaker %s: %s -> %s", b.name, stateName(from), stateName(to))
}

// Execute runs work under the breaker. When the breaker rejects the call, it
// returns a CIRCUIT_OPEN error carrying the next admission time; the work
// function is not invoked.
func (b *Breaker) Execute(work func() (interface{}, error)) (interface{}, error) {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()

	result, err := cb.Execute(func() (interface{}, error) {
		out, workErr := work()
		b.recordOutcome(workErr)
		return out, workErr
	})
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		b.mu.Lock()
		b.totalRejections++
		next := b.nextAttempt
		b.mu.Unlock()
		return nil, gwerrors.CircuitOpen(b.name, next)
	}
	return result, err
}

func (b *Breaker) recordOutcome(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalRequests++
	if err != nil {
		b.totalFailures++
		b.lastFailure = b.now()
		return
	}
	b.totalSuccesses++
	b.lastSuccess = b.now()
}

// State returns the current breaker state as CLOSED, HALF_OPEN or OPEN.
func (b *Breaker) State() string {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()
	return stateName(cb.State())
}

// Snapshot returns a point-in-time view of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := b.cb.Counts()
	return Snapshot{
		Name:                 b.name,
		State:                stateName(b.cb.State()),
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		LastFailure:          b.lastFailure,
		LastSuccess:          b.lastSuccess,
		NextAttempt:          b.nextAttempt,
		TotalRequests:        b.totalRequests,
		TotalSuccesses:       b.totalSuccesses,
		TotalFailures:        b.totalFailures,
		TotalRejections:      b.totalRejections,
	}
}

// Reset discards the breaker's state machine, returning it to CLOSED.
// Lifetime totals are preserved.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.cb = b.newStateMachine()
	b.nextAttempt = time.Time{}
	b.mu.Unlock()
	logging.Info("resilience", "circuit breaker %s reset to %s", b.name, StateClosed)
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
