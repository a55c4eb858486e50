package failure

import (
	"sync"
	"time"
)

// Abort passes once; any failure reports the first error and aborts every
// subsequent attempt (spec.md section 4.5).
type Abort struct {
	mu     sync.Mutex
	failed bool
	err    error
}

var _ Policy = (*Abort)(nil)

func (a *Abort) BeforeRequest(now time.Time) Decision {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failed {
		return Decision{Kind: DecisionAbort, Err: a.err}
	}
	return Decision{Kind: DecisionContinue}
}

func (a *Abort) AfterRequest(now time.Time, outcome Outcome) {
	if outcome.Success {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.failed {
		a.failed = true
		a.err = outcome.Err
	}
}
