package failure

import (
	"sync"
	"time"
)

type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

const defaultOpenTime = 30 * time.Second

// CircuitBreaker implements the closed/open/half-open state machine of
// spec.md section 4.5, grounded on the teacher's CircuitBreaker
// (core/pkg/util/resiliency/client.go) generalized from a fixed
// threshold/timeout pair into the beforeRequest/afterRequest lifecycle and
// an injectable Backoff.
type CircuitBreaker struct {
	MaxContiguousRetries int
	RequestTimeout       time.Duration
	OpenTime             time.Duration
	Backoff              Backoff

	mu       sync.Mutex
	state    circuitState
	failures int
	openedAt time.Time
	lastErr  error
}

var _ Policy = (*CircuitBreaker)(nil)

// NewCircuitBreaker constructs a CircuitBreaker with spec.md defaults.
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		MaxContiguousRetries: defaultMaxContiguousRetries,
		RequestTimeout:       defaultRequestTimeout,
		OpenTime:             defaultOpenTime,
		Backoff:              NewExponentialBackoff(),
	}
}

func (c *CircuitBreaker) max() int {
	if c.MaxContiguousRetries == 0 {
		return defaultMaxContiguousRetries
	}
	return c.MaxContiguousRetries
}

func (c *CircuitBreaker) openTime() time.Duration {
	if c.OpenTime == 0 {
		return defaultOpenTime
	}
	return c.OpenTime
}

func (c *CircuitBreaker) BeforeRequest(now time.Time) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateOpen:
		if now.Sub(c.openedAt) >= c.openTime() {
			c.state = stateHalfOpen
			return Decision{Kind: DecisionContinue}
		}
		return Decision{Kind: DecisionAbort, Err: c.lastErr}
	case stateHalfOpen:
		return Decision{Kind: DecisionContinue}
	default: // stateClosed
		if c.failures > 0 {
			return Decision{Kind: DecisionBackoff, Backoff: c.Backoff.Next()}
		}
		return Decision{Kind: DecisionContinue}
	}
}

func (c *CircuitBreaker) AfterRequest(now time.Time, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if outcome.Success {
		c.failures = 0
		c.lastErr = nil
		c.Backoff.Reset()
		c.state = stateClosed
		return
	}

	c.lastErr = outcome.Err
	if c.state == stateHalfOpen {
		c.state = stateOpen
		c.openedAt = now
		return
	}

	c.failures++
	if c.failures > c.max() {
		c.state = stateOpen
		c.openedAt = now
	}
}
