package failure

import (
	"sync"
	"time"
)

// RouterDecisionKind discriminates what the Router asks the caller to do.
type RouterDecisionKind int

const (
	RouterContinue RouterDecisionKind = iota
	RouterBackoff
	RouterRebind
	RouterAbort
)

// RouterDecision is returned by Router.BeforeRequest.
type RouterDecision struct {
	Kind       RouterDecisionKind
	ProviderID string
	Backoff    time.Duration
	Err        error
}

// ProviderPolicy binds a provider id (ordered by priority, ascending
// index = priority order) to its own failure policy instance.
type ProviderPolicy struct {
	ProviderID string
	Policy     Policy
}

// Router wraps N policies ordered by priority (spec.md section 4.5). It
// maintains the current provider and, when the current policy aborts and
// failover is permitted, advances to the next provider and emits a re-bind
// instruction; once providers are exhausted the last failure is surfaced.
type Router struct {
	mu              sync.Mutex
	policies        []ProviderPolicy
	current         int
	failoverEnabled bool
	lastErr         error
}

// NewRouter constructs a Router over policies ordered by priority.
// Failover starts enabled whenever more than one provider is given.
func NewRouter(policies []ProviderPolicy) *Router {
	return &Router{
		policies:        policies,
		failoverEnabled: len(policies) > 1,
	}
}

// ToggleFailover enables/disables failover; the caller disables it when a
// provider has been fixed explicitly (spec.md section 4.5).
func (r *Router) ToggleFailover(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failoverEnabled = enabled
}

// CurrentProvider reports the currently bound provider id.
func (r *Router) CurrentProvider() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current >= len(r.policies) {
		return ""
	}
	return r.policies[r.current].ProviderID
}

func (r *Router) BeforeRequest(now time.Time) RouterDecision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current >= len(r.policies) {
		return RouterDecision{Kind: RouterAbort, Err: r.lastErr}
	}

	cur := r.policies[r.current]
	d := cur.Policy.BeforeRequest(now)

	switch d.Kind {
	case DecisionAbort:
		r.lastErr = d.Err
		if r.failoverEnabled && r.current+1 < len(r.policies) {
			r.current++
			return RouterDecision{Kind: RouterRebind, ProviderID: r.policies[r.current].ProviderID}
		}
		return RouterDecision{Kind: RouterAbort, Err: d.Err}
	case DecisionBackoff:
		return RouterDecision{Kind: RouterBackoff, ProviderID: cur.ProviderID, Backoff: d.Backoff}
	default:
		return RouterDecision{Kind: RouterContinue, ProviderID: cur.ProviderID}
	}
}

func (r *Router) AfterRequest(now time.Time, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current >= len(r.policies) {
		return
	}
	r.policies[r.current].Policy.AfterRequest(now, outcome)
	if !outcome.Success {
		r.lastErr = outcome.Err
	}
}
