// Package failure implements the failure/retry policies of spec.md section
// 4.5: Abort, SimpleRetry, CircuitBreaker, ExponentialBackoff, and the
// priority-ordered failover Router. It is grounded on the teacher's
// resiliency HTTP client (core/pkg/util/resiliency/client.go): a
// retry-loop-plus-circuit-breaker shape generalized into the narrower
// beforeRequest/afterRequest lifecycle spec.md names, so the retry loop
// itself lives in C9 (sdk/onesdk), not here.
package failure

import "time"

// DecisionKind discriminates what a policy asks the caller to do before
// issuing the next request attempt.
type DecisionKind int

const (
	DecisionContinue DecisionKind = iota
	DecisionBackoff
	DecisionAbort
)

// Decision is returned by Policy.BeforeRequest.
type Decision struct {
	Kind    DecisionKind
	Backoff time.Duration
	Err     error
}

// Outcome is reported to Policy.AfterRequest once an attempt completes.
type Outcome struct {
	Success bool
	Err     error
}

// Policy is a per-(profile, use-case, provider) triple failure policy
// instance (spec.md section 4.5).
type Policy interface {
	BeforeRequest(now time.Time) Decision
	AfterRequest(now time.Time, outcome Outcome)
}

// Backoff computes successive retry delays; ExponentialBackoff is the only
// implementation spec.md section 4.5 requires, but the interface keeps
// CircuitBreaker decoupled from it.
type Backoff interface {
	Next() time.Duration
	Reset()
}
