package security

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

func newParams() *transport.Parameters {
	p := transport.NewParameters()
	p.BaseURL = "https://api.example.com"
	p.InputURL = "/pms/10619"
	p.Method = http.MethodGet
	return p
}

func TestAPIKeyHeaderPlacement(t *testing.T) {
	h := &APIKey{Placement: PlacementHeader, Name: "X-Api-Key", Value: "secret"}
	params := newParams()
	require.NoError(t, h.Authenticate(context.Background(), params))
	assert.Equal(t, "secret", params.Headers.Get("X-Api-Key"))
}

func TestAPIKeyBodyNestedPath(t *testing.T) {
	h := &APIKey{Placement: PlacementBody, Name: "/a/b/c", Value: "secret"}
	params := newParams()
	params.Body = value.Object(map[string]*value.Variable{"d": value.String("existing")})
	require.NoError(t, h.Authenticate(context.Background(), params))

	d, ok := value.GetByPath(params.Body, value.SplitPath("d"))
	require.True(t, ok)
	s, _ := d.String()
	assert.Equal(t, "existing", s)

	c, ok := value.GetByPath(params.Body, value.SplitPath("a.b.c"))
	require.True(t, ok)
	s, _ = c.String()
	assert.Equal(t, "secret", s)
}

func TestBasicAuthHeader(t *testing.T) {
	h := &Basic{Username: "name", Password: "password"}
	params := newParams()
	require.NoError(t, h.Authenticate(context.Background(), params))
	assert.Equal(t, "Basic bmFtZTpwYXNzd29yZA==", params.Headers.Get("Authorization"))
}

func TestBearerAuthHeader(t *testing.T) {
	h := &Bearer{Token: "tok123"}
	params := newParams()
	require.NoError(t, h.Authenticate(context.Background(), params))
	assert.Equal(t, "Bearer tok123", params.Headers.Get("Authorization"))
}

func TestDigestChallengeAndResponseConstruction(t *testing.T) {
	cache := NewDigestCache()
	digest := &Digest{
		ID:       "provider-a",
		Username: "user",
		Password: "pass",
		Cache:    cache,
		Rand:     bytes.NewReader(bytes.Repeat([]byte{0xAB}, 16)),
	}

	params := newParams()
	require.NoError(t, digest.Authenticate(context.Background(), params))
	assert.Empty(t, params.Headers.Get("Authorization"))

	resp := &transport.Response{
		StatusCode: 401,
		Headers:    http.Header{"Www-Authenticate": []string{`Digest realm="API", qop="auth", nonce="abc123"`}},
	}
	replacement, err := digest.HandleResponse(context.Background(), resp, params)
	require.NoError(t, err)
	require.NotNil(t, replacement)

	authz := replacement.Headers.Get("Authorization")
	assert.Contains(t, authz, `username="user"`)
	assert.Contains(t, authz, `realm="API"`)
	assert.Contains(t, authz, `nonce="abc123"`)
	assert.Contains(t, authz, `uri="/pms/10619"`)
	assert.Contains(t, authz, "qop=auth")
	assert.Contains(t, authz, "algorithm=MD5")
	assert.Contains(t, authz, "nc=00000001")

	cached, ok := cache.get("provider-a", "user", "pass")
	require.True(t, ok)
	assert.Equal(t, authz, cached)
}

func TestDigestCacheHitAttachesHeaderWithoutChallenge(t *testing.T) {
	cache := NewDigestCache()
	cache.set("provider-a", "user", "pass", "Digest username=\"user\", ...")
	digest := &Digest{ID: "provider-a", Username: "user", Password: "pass", Cache: cache}

	params := newParams()
	require.NoError(t, digest.Authenticate(context.Background(), params))
	assert.Equal(t, "Digest username=\"user\", ...", params.Headers.Get("Authorization"))
}

func TestRegistryResolveLastMatchWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("basic", &Basic{Username: "a", Password: "b"})
	reg.Register("bearer", &Bearer{Token: "z"})

	selected := reg.Resolve([]string{"basic", "bearer"})
	_, isBearer := selected.(*Bearer)
	assert.True(t, isBearer)
}
