package onesdk

import (
	"context"
	"time"

	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/eventbus"
	"github.com/superfaceai/one-sdk-go/internal/failure"
	"github.com/superfaceai/one-sdk-go/internal/interpreter"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Profile is a handle bound to one profile id, obtained from
// Client.GetProfile.
type Profile struct {
	client *Client
	id     string
}

// GetUseCase returns a handle bound to one use-case of this profile,
// completing the `getProfile(id).getUseCase(name)` accessor chain.
func (p *Profile) GetUseCase(name string) *UseCase {
	return &UseCase{profile: p, name: name}
}

// UseCase is a handle bound to one (profile, use-case) pair; Perform is
// the public entry point: `Client.getProfile(id).getUseCase(name).perform
// (input, options)`.
type UseCase struct {
	profile *Profile
	name    string
}

// PerformOptions is the per-call options bag. Security is a flat override
// list keyed by requirement id, equivalent in expressiveness to a
// `map<id, omit<id>>` form with the id implied by the map key.
type PerformOptions struct {
	Provider    string
	Parameters  map[string]string
	Security    []config.SecurityValue
	MapVariant  string
	MapRevision string
}

// Perform toggles failover, asks the router for a provider, binds
// (cached) the profile to it, invokes the interpreter under the event
// bus, and lets the bus/router outcome decide whether to retry, fail
// over, or return.
func (u *UseCase) Perform(ctx context.Context, input, parameters *value.Variable, opts PerformOptions) (*interpreter.Outcome, *PerformError) {
	client := u.profile.client
	profileID := u.profile.id

	profile, ok := client.snapshotConfig().Profiles[profileID]
	if !ok {
		return nil, newPerformError("config.missing-profile", "profile %q is not configured", profileID)
	}

	router := client.routerFor(profileID, u.name, profile)
	if opts.Provider != "" {
		router.ToggleFailover(false)
	}

	for {
		decision := router.BeforeRequest(time.Now())
		if decision.Kind == failure.RouterAbort {
			return nil, newPerformError("config.provider-exhausted", "every provider for profile %q failed: %v", profileID, decision.Err)
		}
		if decision.Kind == failure.RouterBackoff {
			if werr := sleepOrCancel(ctx, decision.Backoff); werr != nil {
				return nil, werr
			}
		}

		providerID := decision.ProviderID
		if opts.Provider != "" {
			providerID = opts.Provider
		}

		outcome, perr := client.bindAndPerform(ctx, profileID, providerID, u.name, profile, input, parameters, opts)

		success := perr == nil
		var routerErr error
		if !success {
			routerErr = perr
		}
		router.AfterRequest(time.Now(), failure.Outcome{Success: success, Err: routerErr})

		if success {
			return outcome, nil
		}
		if isFatalPerformError(perr) {
			return nil, perr
		}
		// retryable failure: loop back to router.BeforeRequest, which now
		// decides abort/backoff/rebind for the next attempt.
	}
}

// sleepOrCancel waits d or returns a PerformError if ctx is canceled
// first, so a caller-supplied cancel signal aborts an in-flight backoff
// wait rather than blocking until it elapses.
func sleepOrCancel(ctx context.Context, d time.Duration) *PerformError {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return newPerformError("fetch.request.abort", "context canceled while backing off: %v", ctx.Err())
	}
}

// isFatalPerformError reports whether err is fatal to this perform and
// must not be retried (map.interpreter.*, profile.parameter.*, config.*,
// binary.*, exact "unexpected") rather than a fetch-network/fetch-request
// kind the policy layer is meant to retry.
func isFatalPerformError(err *PerformError) bool {
	if err == nil {
		return false
	}
	switch {
	case hasPrefix(err.Code, "map.interpreter."):
		return true
	case hasPrefix(err.Code, "profile.parameter."):
		return true
	case hasPrefix(err.Code, "config."):
		return true
	case hasPrefix(err.Code, "binary."):
		return true
	case err.Code == "unexpected":
		return true
	default:
		return false
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// bindAndPerform is the body of the `around: bind-and-perform` event-bus
// interceptable: it binds the profile to providerID (cached,
// singleflight-coalesced), builds a fresh security
// registry from the provider's configured security merged with any
// per-call override, and runs the interpreter.
func (c *Client) bindAndPerform(ctx context.Context, profileID, providerID, useCase string, profile config.NormalizedProfile, input, parameters *value.Variable, opts PerformOptions) (*interpreter.Outcome, *PerformError) {
	mapVariant, mapRevision := resolveMapCoordinates(profile, providerID, opts)
	key := cacheKey(profileID, providerID, mapVariant, mapRevision)

	bound, err := c.cache.get(ctx, key, profileID, providerID, mapVariant, mapRevision)
	if err != nil {
		return nil, newPerformError("config.bind-failed", "binding profile %q to provider %q: %v", profileID, providerID, err)
	}

	security := mergeSecurityValues(bound.security, opts.Security)
	registry, err := buildSecurityRegistry(security, c.digestCache, c.rand)
	if err != nil {
		return nil, newPerformError("profile.parameter.invalid-security", "%v", err)
	}

	interp := interpreter.New(bound.document, c.evaluator, c.pipeline, registry, bound.services)

	target := eventbus.NewInterceptable(profileID, useCase, providerID)
	c.logger.Log("onesdk", "perform request=", target.RequestID, " profile=", profileID, " provider=", providerID, " useCase=", useCase)
	pre := c.bus.Before(ctx, target)
	if pre.Kind == eventbus.PreAbort {
		return nil, newPerformError("config.aborted-by-hook", "%v", pre.Err)
	}

	providerParams := c.snapshotConfig().Providers[providerID].Parameters
	paramsWithOverrides := applyParameterOverrides(mergeProviderParameters(providerParams, parameters), opts.Parameters)

	start := time.Now()
	outcome, perr := interp.Perform(ctx, useCase, input, paramsWithOverrides)
	elapsed := time.Since(start)

	c.bus.After(ctx, target, eventbus.PostEvent{
		Outcome: eventbus.Outcome{Success: perr == nil, Err: errValue(perr)},
		Elapsed: elapsed,
	})

	if perr != nil {
		return nil, fromInterpreterError(perr)
	}
	return outcome, nil
}

func errValue(perr *interpreter.PerformError) error {
	if perr == nil {
		return nil
	}
	return perr
}

func resolveMapCoordinates(profile config.NormalizedProfile, providerID string, opts PerformOptions) (string, string) {
	var variant, revision string
	if pp, ok := profile.Providers[providerID]; ok {
		variant, revision = pp.MapVariant, pp.MapRevision
	}
	if opts.MapVariant != "" {
		variant = opts.MapVariant
	}
	if opts.MapRevision != "" {
		revision = opts.MapRevision
	}
	return variant, revision
}

func mergeSecurityValues(base, overrides []config.SecurityValue) []config.SecurityValue {
	if len(overrides) == 0 {
		return base
	}
	byID := make(map[string]config.SecurityValue, len(base))
	order := make([]string, 0, len(base))
	for _, v := range base {
		byID[v.ID] = v
		order = append(order, v.ID)
	}
	for _, v := range overrides {
		if _, exists := byID[v.ID]; !exists {
			order = append(order, v.ID)
		}
		byID[v.ID] = v
	}
	out := make([]config.SecurityValue, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out
}

// applyParameterOverrides deep-merges opts.Parameters on top of the
// resolved integration parameters: a provider's own configured values
// first, then call-site overrides.
func applyParameterOverrides(parameters *value.Variable, overrides map[string]string) *value.Variable {
	if len(overrides) == 0 {
		return parameters
	}
	fields := make(map[string]*value.Variable, len(overrides))
	for k, v := range overrides {
		fields[k] = value.String(v)
	}
	return value.DeepMerge(parameters, value.Object(fields))
}

// mergeProviderParameters seeds the `parameters` scope from the
// provider's own configured, env-resolved integration parameters, with
// the caller's parameters taking precedence where both set the same key.
func mergeProviderParameters(providerParams map[string]string, parameters *value.Variable) *value.Variable {
	base := value.EmptyObject()
	if len(providerParams) > 0 {
		fields := make(map[string]*value.Variable, len(providerParams))
		for k, v := range providerParams {
			fields[k] = value.String(v)
		}
		base = value.Object(fields)
	}
	if parameters == nil {
		return base
	}
	return value.DeepMerge(base, parameters)
}
