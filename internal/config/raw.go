// Package config implements the configuration model of spec.md section
// 4.7: parsing super.json's raw, shorthand-accepting document shape and
// normalizing it into a document that never exposes shorthand forms. It is
// grounded on the teacher's SDKConfig (internal/config/sdk_config.go) for
// field/doc-comment style, adapted from a flat YAML server config to the
// nested JSON profiles/providers document this spec requires.
package config

import (
	"encoding/json"
	"fmt"
)

// RawDocument is super.json parsed as-is, still carrying every shorthand
// form spec.md section 4.7 allows.
type RawDocument struct {
	Profiles  map[string]RawProfileEntry  `json:"profiles"`
	Providers map[string]RawProviderEntry `json:"providers"`
}

// RawProfileEntry is either a bare version/file-URI string, or the full
// object form.
type RawProfileEntry struct {
	Version   string                              `json:"version,omitempty"`
	File      string                              `json:"file,omitempty"`
	Priority  []string                             `json:"priority,omitempty"`
	Defaults  map[string]RawUseCaseDefaults        `json:"defaults,omitempty"`
	Providers map[string]RawProfileProviderEntry   `json:"providers,omitempty"`
}

// UnmarshalJSON accepts either a bare string (version or file URI) or the
// object form.
func (p *RawProfileEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if isFileURI(s) {
			p.File = s
		} else {
			p.Version = s
		}
		return nil
	}

	type alias RawProfileEntry
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("config: invalid profile entry: %w", err)
	}
	*p = RawProfileEntry(obj)
	return nil
}

// RawUseCaseDefaults is the "defaults: { usecase -> ... }" shape shared by
// profile-level and profile-provider-level defaults.
type RawUseCaseDefaults struct {
	Input            map[string]any `json:"input,omitempty"`
	ProviderFailover *bool          `json:"providerFailover,omitempty"`
	RetryPolicy      RawRetryPolicy `json:"retryPolicy,omitempty"`
}

// RawProfileProviderEntry is either a bare file-URI string, or the full
// object form (file plus map variant/revision plus per-usecase defaults).
type RawProfileProviderEntry struct {
	File        string                       `json:"file,omitempty"`
	MapVariant  string                       `json:"mapVariant,omitempty"`
	MapRevision string                       `json:"mapRevision,omitempty"`
	Defaults    map[string]RawUseCaseDefaults `json:"defaults,omitempty"`
}

func (p *RawProfileProviderEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.File = s
		return nil
	}
	type alias RawProfileProviderEntry
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("config: invalid profile-provider entry: %w", err)
	}
	*p = RawProfileProviderEntry(obj)
	return nil
}

// RawProviderEntry is either a bare file-URI string, or the full object
// form.
type RawProviderEntry struct {
	File       string            `json:"file,omitempty"`
	Security   []RawSecurityValue `json:"security,omitempty"`
	Parameters map[string]string  `json:"parameters,omitempty"`
}

func (p *RawProviderEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.File = s
		return nil
	}
	type alias RawProviderEntry
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("config: invalid provider entry: %w", err)
	}
	*p = RawProviderEntry(obj)
	return nil
}

// RawSecurityValue is one provider configuration value (spec.md section 3:
// "Provider configuration"), covering API-key, HTTP basic/bearer, and
// Digest in one struct since the JSON shape is discriminated by Type (and,
// for HTTP, by Scheme).
type RawSecurityValue struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// apikey
	In   string `json:"in,omitempty"`
	Name string `json:"name,omitempty"`

	APIKey string `json:"apikey,omitempty"`

	// http basic/bearer
	Scheme   string `json:"scheme,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`

	// digest
	StatusCode          int    `json:"statusCode,omitempty"`
	ChallengeHeader     string `json:"challengeHeader,omitempty"`
	AuthorizationHeader string `json:"authorizationHeader,omitempty"`
}

// RawRetryPolicy accepts the "none" | "simple" | "circuit-breaker"
// shorthand or the full object form; expansion into defaults happens in
// Normalize, not here, since it must stay a pure function over (raw, env).
type RawRetryPolicy struct {
	Kind                 string          `json:"kind,omitempty"`
	MaxContiguousRetries int             `json:"maxContiguousRetries,omitempty"`
	RequestTimeoutMS     int             `json:"requestTimeoutMS,omitempty"`
	OpenTimeMS           int             `json:"openTimeMS,omitempty"`
	Backoff              RawBackoffPolicy `json:"backoff,omitempty"`
}

func (r *RawRetryPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Kind = s
		return nil
	}
	type alias RawRetryPolicy
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("config: invalid retryPolicy: %w", err)
	}
	*r = RawRetryPolicy(obj)
	return nil
}

// RawBackoffPolicy accepts the "exponential" shorthand or the full object
// form.
type RawBackoffPolicy struct {
	Kind    string  `json:"kind,omitempty"`
	StartMS int     `json:"startMS,omitempty"`
	Factor  float64 `json:"factor,omitempty"`
}

func (b *RawBackoffPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Kind = s
		return nil
	}
	type alias RawBackoffPolicy
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("config: invalid backoff: %w", err)
	}
	*b = RawBackoffPolicy(obj)
	return nil
}

// isFileURI reports whether s looks like a file reference rather than a
// semver version string ("x.y.z").
func isFileURI(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' {
			continue
		}
		return true
	}
	return false
}
