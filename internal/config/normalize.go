package config

import (
	"fmt"
	"sort"

	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Error is returned for malformed or inconsistent configuration documents.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Normalize expands raw into a NormalizedDocument: shorthand retry/backoff
// policies are filled in with their defaults, profile priority defaults to
// the provider names sorted lexicographically (the profile's own providers,
// else the document's top-level ones; the JSON key order is not kept), and
// every security/parameter value has its
// $NAME environment reference resolved. Normalize is a pure function of
// (raw, lookup); resolution never happens again at invocation time.
//
// warn, if given (only its first value is used), receives one message per
// usecase whose providerFailover is false while its profile's priority is
// non-empty: priority beyond the first entry is then dead configuration,
// since the router never advances past "current provider" without
// failover enabled. Callers that don't care about this pass no warn func.
func Normalize(raw *RawDocument, lookup value.EnvLookup, warn ...func(string)) (*NormalizedDocument, error) {
	warnFn := resolveWarnFunc(warn)

	doc := &NormalizedDocument{
		Profiles:  make(map[string]NormalizedProfile, len(raw.Profiles)),
		Providers: make(map[string]NormalizedProvider, len(raw.Providers)),
	}

	providerNames := sortedKeys(raw.Providers)

	for name, p := range raw.Providers {
		normalized, err := normalizeProvider(p, lookup)
		if err != nil {
			return nil, &Error{Code: "config.invalid-provider", Message: fmt.Sprintf("provider %q: %v", name, err)}
		}
		doc.Providers[name] = normalized
	}

	for id, p := range raw.Profiles {
		normalized, err := normalizeProfile(p, providerNames)
		if err != nil {
			return nil, &Error{Code: "config.invalid-profile", Message: fmt.Sprintf("profile %q: %v", id, err)}
		}
		for _, name := range normalized.Priority {
			if _, ok := doc.Providers[name]; !ok {
				return nil, &Error{Code: "config.unknown-provider", Message: fmt.Sprintf("profile %q: priority references unknown provider %q", id, name)}
			}
		}
		warnNoFailoverWithPriority(id, normalized, warnFn)
		doc.Profiles[id] = normalized
	}

	return doc, nil
}

func resolveWarnFunc(warn []func(string)) func(string) {
	if len(warn) > 0 && warn[0] != nil {
		return warn[0]
	}
	return func(string) {}
}

// warnNoFailoverWithPriority surfaces the "providerFailover=false with
// non-empty priority" misconfiguration for every affected usecase, in
// sorted usecase-name order so messages are deterministic across runs.
func warnNoFailoverWithPriority(profileID string, p NormalizedProfile, warn func(string)) {
	if len(p.Priority) == 0 {
		return
	}
	for _, usecase := range sortedUseCaseNames(p.Defaults) {
		if p.Defaults[usecase].ProviderFailover {
			continue
		}
		warn(fmt.Sprintf("profile %q: usecase %q has providerFailover=false with non-empty priority %v; only the first provider in priority will ever be used", profileID, usecase, p.Priority))
	}
}

func sortedUseCaseNames(m map[string]UseCaseDefaults) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProfile(p RawProfileEntry, topLevelProviderOrder []string) (NormalizedProfile, error) {
	priority := p.Priority
	if len(priority) == 0 {
		if len(p.Providers) > 0 {
			priority = sortedKeys(p.Providers)
		} else {
			priority = topLevelProviderOrder
		}
	}

	defaults, err := normalizeUseCaseDefaultsMap(p.Defaults)
	if err != nil {
		return NormalizedProfile{}, err
	}

	providers := make(map[string]NormalizedProfileProvider, len(p.Providers))
	for name, pp := range p.Providers {
		ppDefaults, err := normalizeUseCaseDefaultsMap(pp.Defaults)
		if err != nil {
			return NormalizedProfile{}, fmt.Errorf("provider %q: %w", name, err)
		}
		merged := mergeUseCaseDefaults(defaults, ppDefaults)
		providers[name] = NormalizedProfileProvider{
			File:        pp.File,
			MapVariant:  pp.MapVariant,
			MapRevision: pp.MapRevision,
			Defaults:    merged,
		}
	}

	return NormalizedProfile{
		Version:   p.Version,
		File:      p.File,
		Priority:  priority,
		Defaults:  defaults,
		Providers: providers,
	}, nil
}

func normalizeUseCaseDefaultsMap(raw map[string]RawUseCaseDefaults) (map[string]UseCaseDefaults, error) {
	out := make(map[string]UseCaseDefaults, len(raw))
	for usecase, d := range raw {
		policy, err := expandRetryPolicy(d.RetryPolicy)
		if err != nil {
			return nil, fmt.Errorf("usecase %q: %w", usecase, err)
		}
		failover := false
		if d.ProviderFailover != nil {
			failover = *d.ProviderFailover
		}
		input, err := inputToVariable(d.Input)
		if err != nil {
			return nil, fmt.Errorf("usecase %q: input: %w", usecase, err)
		}
		out[usecase] = UseCaseDefaults{
			Input:            input,
			ProviderFailover: failover,
			RetryPolicy:      policy,
		}
	}
	return out, nil
}

// mergeUseCaseDefaults deep-merges profile-level defaults with
// profile-provider-level overrides, per usecase (spec.md section 4.7:
// "profile's defaults.input under each usecase, then provider-specific
// overrides").
func mergeUseCaseDefaults(profileLevel, providerLevel map[string]UseCaseDefaults) map[string]UseCaseDefaults {
	out := make(map[string]UseCaseDefaults, len(profileLevel)+len(providerLevel))
	for usecase, d := range profileLevel {
		out[usecase] = d
	}
	for usecase, override := range providerLevel {
		base, ok := out[usecase]
		if !ok {
			out[usecase] = override
			continue
		}
		merged := base
		if !override.Input.IsNone() {
			merged.Input = value.DeepMerge(base.Input, override.Input)
		}
		if override.RetryPolicy.Kind != "" {
			merged.RetryPolicy = override.RetryPolicy
		}
		merged.ProviderFailover = override.ProviderFailover
		out[usecase] = merged
	}
	return out
}

func inputToVariable(m map[string]any) (*value.Variable, error) {
	fields := make(map[string]*value.Variable, len(m))
	for k, v := range m {
		variable, err := value.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = variable
	}
	return value.Object(fields), nil
}

const (
	defaultMaxContiguousRetries = 5
	defaultRequestTimeoutMS     = 30000
	defaultOpenTimeMS           = 30000
	defaultBackoffStartMS       = 1000
	defaultBackoffFactor        = 2
)

func expandRetryPolicy(raw RawRetryPolicy) (RetryPolicy, error) {
	kind := RetryPolicyKind(raw.Kind)
	if kind == "" {
		kind = RetryNone
	}

	switch kind {
	case RetryNone:
		return RetryPolicy{Kind: RetryNone}, nil
	case RetrySimple:
		policy := RetryPolicy{
			Kind:                 RetrySimple,
			MaxContiguousRetries: orDefault(raw.MaxContiguousRetries, defaultMaxContiguousRetries),
			RequestTimeoutMS:     orDefault(raw.RequestTimeoutMS, defaultRequestTimeoutMS),
		}
		return policy, nil
	case RetryCircuitBreaker:
		backoff, err := expandBackoffPolicy(raw.Backoff)
		if err != nil {
			return RetryPolicy{}, err
		}
		return RetryPolicy{
			Kind:                 RetryCircuitBreaker,
			MaxContiguousRetries: orDefault(raw.MaxContiguousRetries, defaultMaxContiguousRetries),
			RequestTimeoutMS:     orDefault(raw.RequestTimeoutMS, defaultRequestTimeoutMS),
			OpenTimeMS:           orDefault(raw.OpenTimeMS, defaultOpenTimeMS),
			Backoff:              backoff,
		}, nil
	default:
		return RetryPolicy{}, fmt.Errorf("unknown retry policy kind %q", raw.Kind)
	}
}

func expandBackoffPolicy(raw RawBackoffPolicy) (BackoffPolicy, error) {
	kind := BackoffKind(raw.Kind)
	if kind == "" {
		kind = BackoffExponential
	}
	switch kind {
	case BackoffExponential:
		return BackoffPolicy{
			Kind:    BackoffExponential,
			StartMS: orDefault(raw.StartMS, defaultBackoffStartMS),
			Factor:  orDefaultFloat(raw.Factor, defaultBackoffFactor),
		}, nil
	case BackoffNone:
		return BackoffPolicy{Kind: BackoffNone}, nil
	default:
		return BackoffPolicy{}, fmt.Errorf("unknown backoff kind %q", raw.Kind)
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func normalizeProvider(p RawProviderEntry, lookup value.EnvLookup) (NormalizedProvider, error) {
	security := make([]SecurityValue, len(p.Security))
	for i, s := range p.Security {
		security[i] = SecurityValue{
			ID:                  s.ID,
			Type:                s.Type,
			In:                  s.In,
			Name:                s.Name,
			APIKey:              resolveEnvString(s.APIKey, lookup),
			Scheme:              s.Scheme,
			Username:            resolveEnvString(s.Username, lookup),
			Password:            resolveEnvString(s.Password, lookup),
			Token:               resolveEnvString(s.Token, lookup),
			StatusCode:          s.StatusCode,
			ChallengeHeader:     s.ChallengeHeader,
			AuthorizationHeader: s.AuthorizationHeader,
		}
	}

	parameters := make(map[string]string, len(p.Parameters))
	for k, v := range p.Parameters {
		parameters[k] = resolveEnvString(v, lookup)
	}

	return NormalizedProvider{
		File:       p.File,
		Security:   security,
		Parameters: parameters,
	}, nil
}

// resolveEnvString replaces an exact "$NAME" string with the environment
// value for NAME, leaving the original string untouched if NAME is unset
// or s isn't an exact env reference (spec.md section 4.1).
func resolveEnvString(s string, lookup value.EnvLookup) string {
	if lookup == nil {
		return s
	}
	resolved := value.ResolveEnv(value.String(s), lookup, s)
	out, _ := resolved.String()
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
