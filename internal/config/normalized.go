package config

import "github.com/superfaceai/one-sdk-go/internal/value"

// NormalizedDocument never exposes a shorthand form: every profile has an
// explicit Priority (empty only when no providers are declared at all) and
// every retry/backoff policy is expanded
// to its full object form (spec.md section 4.7).
type NormalizedDocument struct {
	Profiles  map[string]NormalizedProfile
	Providers map[string]NormalizedProvider
}

// NormalizedProfile is one profiles[*] entry after normalization.
type NormalizedProfile struct {
	Version  string
	File     string
	Priority []string
	Defaults map[string]UseCaseDefaults
	Providers map[string]NormalizedProfileProvider
}

// NormalizedProfileProvider is one profiles[*].providers[*] entry.
type NormalizedProfileProvider struct {
	File        string
	MapVariant  string
	MapRevision string
	Defaults    map[string]UseCaseDefaults
}

// UseCaseDefaults is the per-usecase defaults carried at both profile and
// profile-provider level (spec.md section 4.7: "Defaults merge from
// profile to profile-provider by deep-merge").
type UseCaseDefaults struct {
	Input            *value.Variable
	ProviderFailover bool
	RetryPolicy      RetryPolicy
}

// RetryPolicyKind discriminates the expanded retry-policy forms.
type RetryPolicyKind string

const (
	RetryNone           RetryPolicyKind = "none"
	RetrySimple         RetryPolicyKind = "simple"
	RetryCircuitBreaker RetryPolicyKind = "circuit-breaker"
)

// RetryPolicy is the fully-expanded form of RawRetryPolicy, defaults per
// spec.md section 4.5 filled in.
type RetryPolicy struct {
	Kind                 RetryPolicyKind
	MaxContiguousRetries int
	RequestTimeoutMS     int
	OpenTimeMS           int
	Backoff              BackoffPolicy
}

// BackoffKind discriminates the expanded backoff forms.
type BackoffKind string

const (
	BackoffNone        BackoffKind = "none"
	BackoffExponential BackoffKind = "exponential"
)

// BackoffPolicy is the fully-expanded form of RawBackoffPolicy.
type BackoffPolicy struct {
	Kind    BackoffKind
	StartMS int
	Factor  float64
}

// NormalizedProvider is one providers[*] entry after normalization; its
// Security and Parameters values have had $NAME environment references
// resolved.
type NormalizedProvider struct {
	File       string
	Security   []SecurityValue
	Parameters map[string]string
}

// SecurityValue is the normalized (env-resolved) form of RawSecurityValue.
type SecurityValue struct {
	ID                  string
	Type                string
	In                  string
	Name                string
	APIKey              string
	Scheme              string
	Username            string
	Password            string
	Token               string
	StatusCode          int
	ChallengeHeader     string
	AuthorizationHeader string
}
