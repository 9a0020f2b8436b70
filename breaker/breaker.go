// Package breaker is an optional per-target circuit breaker: after a
// run of consecutive failures it stops issuing calls for a cooldown
// window, then allows a bounded number of half-open probes before
// deciding whether to fully reopen or fully close. Wrapping a
// provider.Invoker call in a breaker is a deployment choice (§4.1 notes
// it as optional), not a requirement every call path must take.
//
// Adapted from the teacher's llm/circuitbreaker/breaker.go: same
// Closed/Open/HalfOpen state machine and beforeCall/afterCall split,
// with isClientError's string-matching replaced by apperr.IsRetryable
// — a call whose error is already known non-retryable (bad request,
// auth failure) should not itself count against the breaker, since no
// amount of retrying would have helped.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arguslm/arguslm/apperr"
	"go.uber.org/zap"
)

// State is one of Closed, Open, HalfOpen.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var (
	ErrOpen          = errors.New("breaker: circuit is open")
	ErrHalfOpenLimit = errors.New("breaker: too many calls while half-open")
)

// Config tunes the state machine. Zero values fall back to the
// defaults in DefaultConfig.
type Config struct {
	Threshold        int
	Timeout          time.Duration
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
	OnStateChange    func(from, to State)
}

// DefaultConfig mirrors the teacher's circuitbreaker.DefaultConfig.
func DefaultConfig() Config {
	return Config{
		Threshold:        5,
		Timeout:          30 * time.Second,
		ResetTimeout:     60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 60 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 3
	}
	return c
}

// Breaker wraps calls with the three-state failure-isolation machine.
type Breaker struct {
	cfg    Config
	logger *zap.Logger

	mu                sync.Mutex
	state             State
	failureCount      int
	lastFailureTime   time.Time
	halfOpenCallCount int
}

// New builds a Breaker. A nil logger falls back to zap.NewNop().
func New(cfg Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{cfg: cfg.withDefaults(), logger: logger, state: StateClosed}
}

// Call runs fn under the breaker's timeout and failure accounting.
// ErrOpen/ErrHalfOpenLimit are returned without invoking fn at all when
// the breaker is not accepting calls.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() { resultCh <- fn(callCtx) }()

	select {
	case <-callCtx.Done():
		b.afterCall(false)
		return fmt.Errorf("breaker: call timed out: %w", callCtx.Err())
	case err := <-resultCh:
		success := err == nil || !apperr.IsRetryable(err)
		b.afterCall(success)
		return err
	}
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.lastFailureTime) > b.cfg.ResetTimeout {
			b.setState(StateHalfOpen)
			b.halfOpenCallCount = 0
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		if b.halfOpenCallCount >= b.cfg.HalfOpenMaxCalls {
			return ErrHalfOpenLimit
		}
		b.halfOpenCallCount++
		return nil
	default:
		return fmt.Errorf("breaker: unknown state %v", b.state)
	}
}

func (b *Breaker) afterCall(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if success {
		b.onSuccess()
	} else {
		b.onFailure()
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.setState(StateClosed)
		b.failureCount = 0
		b.halfOpenCallCount = 0
	case StateOpen:
		b.logger.Warn("breaker received success while open")
	}
}

func (b *Breaker) onFailure() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.cfg.Threshold {
			b.logger.Warn("breaker opening", zap.Int("failure_count", b.failureCount), zap.Int("threshold", b.cfg.Threshold))
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.setState(StateOpen)
		b.halfOpenCallCount = 0
	case StateOpen:
		b.logger.Warn("breaker received failure while open")
	}
}

func (b *Breaker) setState(newState State) {
	oldState := b.state
	b.state = newState
	if b.cfg.OnStateChange != nil {
		go b.cfg.OnStateChange(oldState, newState)
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to Closed, discarding failure history.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.state
	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenCallCount = 0
	if b.cfg.OnStateChange != nil && old != StateClosed {
		go b.cfg.OnStateChange(old, StateClosed)
	}
}
