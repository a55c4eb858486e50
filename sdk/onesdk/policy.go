package onesdk

import (
	"time"

	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/failure"
)

// policyFromConfig builds a fresh failure.Policy instance from a
// normalized retry policy. A new instance is built per (profile, usecase,
// provider) triple and then held until Client.ReplaceConfig drops the
// routers.
func policyFromConfig(rp config.RetryPolicy) failure.Policy {
	switch rp.Kind {
	case config.RetrySimple:
		return &failure.SimpleRetry{
			MaxContiguousRetries: rp.MaxContiguousRetries,
			RequestTimeout:       time.Duration(rp.RequestTimeoutMS) * time.Millisecond,
		}
	case config.RetryCircuitBreaker:
		return &failure.CircuitBreaker{
			MaxContiguousRetries: rp.MaxContiguousRetries,
			RequestTimeout:       time.Duration(rp.RequestTimeoutMS) * time.Millisecond,
			OpenTime:             time.Duration(rp.OpenTimeMS) * time.Millisecond,
			Backoff:              backoffFromConfig(rp.Backoff),
		}
	default: // config.RetryNone
		return &failure.Abort{}
	}
}

func backoffFromConfig(bp config.BackoffPolicy) failure.Backoff {
	if bp.Kind != config.BackoffExponential {
		return failure.NewExponentialBackoff()
	}
	return &failure.ExponentialBackoff{
		Start:  time.Duration(bp.StartMS) * time.Millisecond,
		Factor: bp.Factor,
	}
}

// buildRouter constructs a Router over profile.Priority providers for one
// usecase, each wrapping the policy from that provider's merged defaults
// (falling back to the profile-level defaults when a provider declares
// none); ProviderFailover is read off the first-priority provider's
// merged defaults, since the router has no principled way to combine N
// possibly-disagreeing per-provider flags into its single toggle.
func buildRouter(profile config.NormalizedProfile, useCase string) *failure.Router {
	policies := make([]failure.ProviderPolicy, 0, len(profile.Priority))
	for _, providerID := range profile.Priority {
		rp := config.RetryPolicy{Kind: config.RetryNone}
		if d, ok := profile.Defaults[useCase]; ok {
			rp = d.RetryPolicy
		}
		if pp, ok := profile.Providers[providerID]; ok {
			if d, ok := pp.Defaults[useCase]; ok {
				rp = d.RetryPolicy
			}
		}
		policies = append(policies, failure.ProviderPolicy{ProviderID: providerID, Policy: policyFromConfig(rp)})
	}

	router := failure.NewRouter(policies)
	failoverEnabled := false
	if len(profile.Priority) > 0 {
		leadID := profile.Priority[0]
		if d, ok := profile.Defaults[useCase]; ok {
			failoverEnabled = d.ProviderFailover
		}
		if pp, ok := profile.Providers[leadID]; ok {
			if d, ok := pp.Defaults[useCase]; ok {
				failoverEnabled = d.ProviderFailover
			}
		}
	}
	router.ToggleFailover(failoverEnabled && len(profile.Priority) > 1)
	return router
}
