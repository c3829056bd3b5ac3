package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	// CircuitClosed indicates the circuit is allowing requests to pass through.
	CircuitClosed CircuitState = iota
	// CircuitOpen indicates the circuit is rejecting requests after repeated transport failures.
	CircuitOpen
	// CircuitHalfOpen indicates one trial request is in flight.
	CircuitHalfOpen
)

// String returns a string representation of the circuit state
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the provider while the circuit is open.
var ErrCircuitOpen = fmt.Errorf("%w: circuit open", domain.ErrTransport)

// CircuitBreaker stops calling a provider after consecutive transport
// failures and lets a single trial call through once the recovery timeout passes.
// Parse failures never reach it: it only sees errors from the provider call.
type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	state            CircuitState
	failureCount     int
	openedAt         time.Time
	now              func() time.Time
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// transport failures and tries again after recovery.
func NewCircuitBreaker(name string, threshold int, recovery time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if recovery <= 0 {
		recovery = 30 * time.Second
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: threshold,
		recoveryTimeout:  recovery,
		state:            CircuitClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. An open circuit past its
// recovery timeout moves to half-open and admits exactly one trial call.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.recoveryTimeout {
			return false
		}
		cb.state = CircuitHalfOpen
		slog.Info("circuit breaker half-open, probing provider", slog.String("breaker", cb.name))
		return true
	default:
		return false
	}
}

// RecordSuccess closes the circuit and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state != CircuitClosed {
		cb.state = CircuitClosed
		slog.Info("circuit breaker closed after successful trial call", slog.String("breaker", cb.name))
	}
}

// RecordFailure counts a transport failure. A failed trial call reopens the circuit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
		slog.Warn("circuit breaker opened",
			slog.String("breaker", cb.name),
			slog.Int("failure_count", cb.failureCount),
			slog.Int("threshold", cb.failureThreshold),
			slog.Duration("recovery_timeout", cb.recoveryTimeout))
	}
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ReleaseTrial returns a half-open circuit to open without judging the
// provider, so the next caller may try again.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
	}
}

// Call runs fn when the circuit allows it and records the outcome. Only
// domain.ErrTransport failures count against the circuit. A call that ends
// because ctx was cancelled or expired says nothing about the provider and
// is recorded as neither success nor failure.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() (string, error)) (string, error) {
	if !cb.Allow() {
		return "", ErrCircuitOpen
	}
	out, err := fn()
	switch {
	case err == nil:
		cb.RecordSuccess()
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		cb.ReleaseTrial()
	case errors.Is(err, domain.ErrTransport):
		cb.RecordFailure()
	default:
		// Non-transport errors say nothing about provider health.
		cb.RecordSuccess()
	}
	return out, err
}
