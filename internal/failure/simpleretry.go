package failure

import (
	"sync"
	"time"
)

const defaultMaxContiguousRetries = 5
const defaultRequestTimeout = 30 * time.Second

// SimpleRetry retries up to maxContiguousRetries times with no delay
// between attempts, resetting the counter on any success (spec.md section
// 4.5).
type SimpleRetry struct {
	MaxContiguousRetries int
	RequestTimeout       time.Duration

	mu       sync.Mutex
	failures int
	lastErr  error
}

var _ Policy = (*SimpleRetry)(nil)

// NewSimpleRetry constructs a SimpleRetry with spec.md defaults.
func NewSimpleRetry() *SimpleRetry {
	return &SimpleRetry{
		MaxContiguousRetries: defaultMaxContiguousRetries,
		RequestTimeout:       defaultRequestTimeout,
	}
}

func (s *SimpleRetry) max() int {
	if s.MaxContiguousRetries == 0 {
		return defaultMaxContiguousRetries
	}
	return s.MaxContiguousRetries
}

func (s *SimpleRetry) BeforeRequest(now time.Time) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > s.max() {
		return Decision{Kind: DecisionAbort, Err: s.lastErr}
	}
	return Decision{Kind: DecisionContinue}
}

func (s *SimpleRetry) AfterRequest(now time.Time, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if outcome.Success {
		s.failures = 0
		s.lastErr = nil
		return
	}
	s.failures++
	s.lastErr = outcome.Err
}
