package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestParseConfigExpandsShorthandAndResolvesEnv(t *testing.T) {
	doc := []byte(`{
		"profiles": {
			"weather": {
				"version": "1.0.0",
				"providers": {
					"acme": {}
				}
			}
		},
		"providers": {
			"acme": {
				"security": [{"id": "main", "type": "http", "scheme": "basic", "username": "name", "password": "$ACME_PASSWORD"}],
				"parameters": {"region": "$ACME_REGION"}
			}
		}
	}`)

	parsed, err := ParseConfig(doc, lookupFrom(map[string]string{"ACME_PASSWORD": "secret", "ACME_REGION": "eu"}))
	require.NoError(t, err)

	profile, ok := parsed.Profiles["weather"]
	require.True(t, ok)
	assert.Equal(t, []string{"acme"}, profile.Priority)

	provider := parsed.Providers["acme"]
	require.Len(t, provider.Security, 1)
	assert.Equal(t, "secret", provider.Security[0].Password)
	assert.Equal(t, "eu", provider.Parameters["region"])
}

func TestNormalizePriorityDefaultsToTopLevelProviderOrder(t *testing.T) {
	doc := []byte(`{
		"profiles": {"weather": {"version": "1.0.0"}},
		"providers": {"acme": {}, "zenith": {}}
	}`)
	parsed, err := ParseConfig(doc, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acme", "zenith"}, parsed.Profiles["weather"].Priority)
}

func TestNormalizeRejectsUnknownProviderInPriority(t *testing.T) {
	doc := []byte(`{
		"profiles": {"weather": {"version": "1.0.0", "priority": ["missing"]}},
		"providers": {"acme": {}}
	}`)
	_, err := ParseConfig(doc, nil)
	assert.Error(t, err)
}

func TestNormalizeWarnsWhenFailoverDisabledWithNonEmptyPriority(t *testing.T) {
	doc := []byte(`{
		"profiles": {
			"weather": {
				"version": "1.0.0",
				"priority": ["acme", "zenith"],
				"defaults": {"getCurrent": {}}
			}
		},
		"providers": {"acme": {}, "zenith": {}}
	}`)

	var warnings []string
	_, err := ParseConfig(doc, nil, func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `profile "weather"`)
	assert.Contains(t, warnings[0], `usecase "getCurrent"`)
}

func TestNormalizeDoesNotWarnWhenFailoverEnabled(t *testing.T) {
	doc := []byte(`{
		"profiles": {
			"weather": {
				"version": "1.0.0",
				"priority": ["acme", "zenith"],
				"defaults": {"getCurrent": {"providerFailover": true}}
			}
		},
		"providers": {"acme": {}, "zenith": {}}
	}`)

	var warnings []string
	_, err := ParseConfig(doc, nil, func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestRetryPolicyShorthandExpandsWithDefaults(t *testing.T) {
	doc := []byte(`{
		"profiles": {
			"weather": {
				"version": "1.0.0",
				"defaults": {"getCurrent": {"retryPolicy": "circuit-breaker"}}
			}
		},
		"providers": {"acme": {}}
	}`)
	parsed, err := ParseConfig(doc, nil)
	require.NoError(t, err)

	policy := parsed.Profiles["weather"].Defaults["getCurrent"].RetryPolicy
	assert.Equal(t, RetryCircuitBreaker, policy.Kind)
	assert.Equal(t, 5, policy.MaxContiguousRetries)
	assert.Equal(t, BackoffExponential, policy.Backoff.Kind)
	assert.Equal(t, 1000, policy.Backoff.StartMS)
	assert.Equal(t, 2.0, policy.Backoff.Factor)
}

func TestProviderLevelDefaultsOverrideProfileLevel(t *testing.T) {
	doc := []byte(`{
		"profiles": {
			"weather": {
				"version": "1.0.0",
				"defaults": {"getCurrent": {"input": {"units": "metric", "lang": "en"}}},
				"providers": {
					"acme": {"defaults": {"getCurrent": {"input": {"units": "imperial"}}}}
				}
			}
		},
		"providers": {"acme": {}}
	}`)
	parsed, err := ParseConfig(doc, nil)
	require.NoError(t, err)

	merged := parsed.Profiles["weather"].Providers["acme"].Defaults["getCurrent"].Input
	units, _ := merged.Object()
	unitsStr, _ := units["units"].String()
	langStr, _ := units["lang"].String()
	assert.Equal(t, "imperial", unitsStr)
	assert.Equal(t, "en", langStr)
}
