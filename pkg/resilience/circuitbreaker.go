package resilience

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrBreakerOpen is returned when the breaker rejects a call outright.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// Name appears in state-change callbacks and logs
	Name string

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before allowing a
	// half-open probe
	ResetTimeout time.Duration

	// OnStateChange is called whenever the state transitions
	OnStateChange func(name string, from, to BreakerState)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Name:             "default",
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// CircuitBreaker guards a remote endpoint: after FailureThreshold
// consecutive failures calls fail fast with ErrBreakerOpen until
// ResetTimeout elapses, then a single probe decides whether to close
// again.
type CircuitBreaker struct {
	config *BreakerConfig

	mu           sync.Mutex
	state        BreakerState
	failures     int
	openedAt     time.Time
	halfOpenBusy bool
}

// NewCircuitBreaker creates a breaker, normalizing config values.
func NewCircuitBreaker(config *BreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{config: config, state: BreakerClosed}
}

// State returns the current state, accounting for reset timeout expiry.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == BreakerOpen && time.Since(cb.openedAt) >= cb.config.ResetTimeout {
		return BreakerHalfOpen
	}
	return cb.state
}

// Execute runs fn if the breaker allows it.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}
	err := fn()
	cb.afterCall(err == nil)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if time.Since(cb.openedAt) < cb.config.ResetTimeout {
			return ErrBreakerOpen
		}
		cb.transition(BreakerHalfOpen)
		cb.halfOpenBusy = true
		return nil
	case BreakerHalfOpen:
		if cb.halfOpenBusy {
			return ErrBreakerOpen
		}
		cb.halfOpenBusy = true
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) afterCall(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.halfOpenBusy = false

	if success {
		cb.failures = 0
		if cb.state != BreakerClosed {
			cb.transition(BreakerClosed)
		}
		return
	}

	cb.failures++
	if cb.state == BreakerHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.openedAt = time.Now()
		if cb.state != BreakerOpen {
			cb.transition(BreakerOpen)
		}
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	cb.state = to
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
