// Package circuitbreaker stops calling a failing dependency for a while and
// probes it before resuming.
package circuitbreaker

import (
	"context"
	"io"
	"sync"
	"time"

	"duplex-server/pkg/errors"

	"github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker configuration
type Config struct {
	// FailureThreshold is the consecutive failures that open the circuit
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// SuccessThreshold is the consecutive half-open successes that close it
	SuccessThreshold int `json:"success_threshold" yaml:"success_threshold"`

	// Timeout is how long the circuit stays open before a probe
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxTimeout caps the doubled timeout after repeated trips
	MaxTimeout time.Duration `json:"max_timeout" yaml:"max_timeout"`

	ExponentialBackoff bool `json:"exponential_backoff" yaml:"exponential_backoff"`
}

// DefaultConfig returns the breaker defaults used for the event broker
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold:   5,
		SuccessThreshold:   2,
		Timeout:            10 * time.Second,
		MaxTimeout:         2 * time.Minute,
		ExponentialBackoff: true,
	}
}

// Statistics tracks circuit breaker activity
type Statistics struct {
	State                string    `json:"state"`
	TotalRequests        int64     `json:"total_requests"`
	SuccessfulRequests   int64     `json:"successful_requests"`
	FailedRequests       int64     `json:"failed_requests"`
	RejectedRequests     int64     `json:"rejected_requests"`
	ConsecutiveFailures  int       `json:"consecutive_failures"`
	ConsecutiveSuccesses int       `json:"consecutive_successes"`
	StateTransitions     int64     `json:"state_transitions"`
	LastFailureTime      time.Time `json:"last_failure_time,omitempty"`
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name   string
	logger *logrus.Entry
	config *Config
	now    func() time.Time

	mutex       sync.Mutex
	state       State
	trips       int
	nextAttempt time.Time
	stats       Statistics

	onStateChange func(name string, from, to State)
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(name string, config *Config, logger *logrus.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &CircuitBreaker{
		name:   name,
		logger: logger.WithField("circuit_breaker", name),
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// SetClock replaces the time source
func (cb *CircuitBreaker) SetClock(now func() time.Time) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.now = now
}

// SetStateChangeCallback registers a callback run on every transition. It is
// called with the breaker lock held and must not call back into the breaker.
func (cb *CircuitBreaker) SetStateChangeCallback(callback func(name string, from, to State)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = callback
}

// Execute runs fn unless the circuit is open. A rejected call returns an
// ErrCircuitOpen error without running fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.allowRequest(); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		cb.recordFailure(err)
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allowRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateOpen {
		if cb.now().Before(cb.nextAttempt) {
			cb.stats.RejectedRequests++
			return errors.NewCircuitOpen(cb.name, cb.state.String())
		}
		cb.setState(StateHalfOpen)
	}
	return nil
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.stats.TotalRequests++
	cb.stats.SuccessfulRequests++
	cb.stats.ConsecutiveFailures = 0
	cb.stats.ConsecutiveSuccesses++

	if cb.state == StateHalfOpen && cb.stats.ConsecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.setState(StateClosed)
	}
}

func (cb *CircuitBreaker) recordFailure(err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.stats.TotalRequests++
	cb.stats.FailedRequests++
	cb.stats.ConsecutiveFailures++
	cb.stats.ConsecutiveSuccesses = 0
	cb.stats.LastFailureTime = cb.now()

	// Any failure while probing re-opens the circuit
	if cb.state == StateHalfOpen || cb.stats.ConsecutiveFailures >= cb.config.FailureThreshold {
		cb.setState(StateOpen)
	}

	cb.logger.WithError(err).WithFields(logrus.Fields{
		"failures": cb.stats.ConsecutiveFailures,
		"state":    cb.state.String(),
	}).Debug("Circuit breaker recorded failure")
}

// setState changes the state. The caller holds the lock.
func (cb *CircuitBreaker) setState(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.stats.StateTransitions++

	switch newState {
	case StateOpen:
		timeout := cb.config.Timeout
		if cb.config.ExponentialBackoff {
			timeout = min(cb.config.Timeout<<min(cb.trips, 10), cb.config.MaxTimeout)
		}
		cb.trips++
		cb.nextAttempt = cb.now().Add(timeout)

	case StateClosed:
		cb.trips = 0
		cb.nextAttempt = time.Time{}

	case StateHalfOpen:
		cb.stats.ConsecutiveSuccesses = 0
	}

	cb.logger.WithFields(logrus.Fields{
		"from_state": oldState.String(),
		"to_state":   newState.String(),
		"failures":   cb.stats.ConsecutiveFailures,
	}).Info("Circuit breaker state changed")

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, oldState, newState)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Statistics returns a copy of the counters
func (cb *CircuitBreaker) Statistics() Statistics {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	stats := cb.stats
	stats.State = cb.state.String()
	return stats
}

// Reset closes the circuit and clears the counters
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.setState(StateClosed)
	cb.stats = Statistics{}
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
