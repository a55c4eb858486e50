package security

import (
	"context"
	"crypto/md5"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/superfaceai/one-sdk-go/internal/transport"
)

// DigestCache is the process-wide credential cache keyed by
// hash(id+user+pass) (spec.md section 3's "Digest credential cache entry").
// Entries are invalidated on any new 401 from the same target.
type DigestCache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewDigestCache constructs an empty cache.
func NewDigestCache() *DigestCache {
	return &DigestCache{entries: map[string]string{}}
}

func cacheKey(id, username, password string) string {
	sum := sha256.Sum256([]byte(id + username + password))
	return hex.EncodeToString(sum[:])
}

func (c *DigestCache) get(id, username, password string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(id, username, password)]
	return v, ok
}

func (c *DigestCache) set(id, username, password, header string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(id, username, password)] = header
}

func (c *DigestCache) invalidate(id, username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(id, username, password))
}

// RandSource supplies the cryptographic randomness cnonce is drawn from
// (spec.md section 4.4); crypto/rand.Reader in production, a fixed-output
// stub in tests.
type RandSource interface {
	io.Reader
}

// Digest implements transport.SecurityHandler for RFC 2617/7616 digest auth.
type Digest struct {
	// ID identifies the provider configuration for cache-key purposes; it
	// need not be globally unique beyond (ID, Username, Password).
	ID       string
	Username string
	Password string

	// StatusCode defaults to 401.
	StatusCode int
	// ChallengeHeader defaults to "www-authenticate".
	ChallengeHeader string
	// AuthorizationHeader defaults to "Authorization".
	AuthorizationHeader string

	Cache *DigestCache
	Rand  RandSource

	mu sync.Mutex
	nc map[string]uint32
}

var _ transport.SecurityHandler = (*Digest)(nil)

func (d *Digest) statusCode() int {
	if d.StatusCode == 0 {
		return 401
	}
	return d.StatusCode
}

func (d *Digest) challengeHeader() string {
	if d.ChallengeHeader == "" {
		return "www-authenticate"
	}
	return d.ChallengeHeader
}

func (d *Digest) authorizationHeader() string {
	if d.AuthorizationHeader == "" {
		return "Authorization"
	}
	return d.AuthorizationHeader
}

// Authenticate consults the credential cache; a miss sends the request
// unauthenticated and relies on HandleResponse to challenge/retry.
func (d *Digest) Authenticate(ctx context.Context, params *transport.Parameters) error {
	if cached, ok := d.Cache.get(d.ID, d.Username, d.Password); ok {
		params.Headers.Set(d.authorizationHeader(), cached)
	}
	return nil
}

// HandleResponse activates on the configured challenge status; it parses
// the challenge, builds the response header, caches it, and returns a
// replacement request carrying it.
func (d *Digest) HandleResponse(ctx context.Context, resp *transport.Response, params *transport.Parameters) (*transport.Request, error) {
	if resp.StatusCode != d.statusCode() {
		return nil, nil
	}
	raw := resp.Headers.Get(d.challengeHeader())
	if raw == "" {
		return nil, newError("digest.header-not-found", "response is missing challenge header %q", d.challengeHeader())
	}

	challenge, err := parseDigestChallenge(raw)
	if err != nil {
		return nil, err
	}

	d.Cache.invalidate(d.ID, d.Username, d.Password)

	uri, err := requestURI(params)
	if err != nil {
		return nil, err
	}

	cnonce, err := d.cnonce()
	if err != nil {
		return nil, err
	}

	nc := d.nextNC(challenge.nonce)
	header, err := buildDigestAuthorization(digestInputs{
		username:  d.Username,
		password:  d.Password,
		method:    params.Method,
		uri:       uri,
		challenge: challenge,
		cnonce:    cnonce,
		nc:        nc,
	})
	if err != nil {
		return nil, err
	}

	d.Cache.set(d.ID, d.Username, d.Password, header)
	params.Headers.Set(d.authorizationHeader(), header)
	return params.Build()
}

func (d *Digest) cnonce() (string, error) {
	source := d.Rand
	if source == nil {
		source = cryptorand.Reader
	}
	buf := make([]byte, 16)
	if _, err := io.ReadFull(source, buf); err != nil {
		return "", newError("digest.cnonce", "failed to draw cnonce: %v", err)
	}
	return hex.EncodeToString(buf), nil
}

func (d *Digest) nextNC(nonce string) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nc == nil {
		d.nc = map[string]uint32{}
	}
	d.nc[nonce]++
	return d.nc[nonce]
}

func requestURI(params *transport.Parameters) (string, error) {
	req, err := params.Build()
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return "", newError("digest.invalid-uri", "cannot parse request url: %v", err)
	}
	if parsed.Path == "" {
		return "/", nil
	}
	return parsed.Path, nil
}

type digestChallenge struct {
	scheme    string
	realm     string
	opaque    string
	qop       string
	algorithm string
	nonce     string
}

// parseDigestChallenge extracts the fields spec.md section 4.4 names from a
// WWW-Authenticate header value.
func parseDigestChallenge(raw string) (*digestChallenge, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, newError("digest.missing-part", "challenge is empty")
	}
	firstSpace := strings.IndexAny(raw, " \t")
	if firstSpace < 0 {
		return nil, newError("digest.missing-part", "challenge is missing a scheme")
	}
	scheme := raw[:firstSpace]
	rest := raw[firstSpace+1:]

	parts := splitDigestParts(rest)

	c := &digestChallenge{scheme: scheme}
	c.realm = unquote(parts["realm"])
	c.opaque = unquote(parts["opaque"])
	c.nonce = unquote(parts["nonce"])
	if c.nonce == "" {
		return nil, newError("digest.missing-part", "challenge is missing nonce")
	}

	if qopRaw, ok := parts["qop"]; ok {
		options := strings.Split(unquote(qopRaw), ",")
		for _, o := range options {
			o = strings.TrimSpace(o)
			if o == "auth-int" {
				c.qop = "auth-int"
				break
			}
		}
		if c.qop == "" {
			for _, o := range options {
				if strings.TrimSpace(o) == "auth" {
					c.qop = "auth"
					break
				}
			}
		}
		if c.qop == "" {
			return nil, newError("digest.unexpected-value", "unsupported qop %q", qopRaw)
		}
	}

	algorithm := unquote(parts["algorithm"])
	if algorithm == "" {
		algorithm = "MD5"
	}
	switch algorithm {
	case "MD5", "MD5-sess", "SHA-256", "SHA-256-sess":
		c.algorithm = algorithm
	default:
		return nil, newError("digest.unexpected-value", "unsupported algorithm %q", algorithm)
	}

	return c, nil
}

func splitDigestParts(rest string) map[string]string {
	parts := map[string]string{}
	var key, val strings.Builder
	inQuotes := false
	inValue := false
	flush := func() {
		if key.Len() > 0 {
			parts[strings.ToLower(strings.TrimSpace(key.String()))] = strings.TrimSpace(val.String())
		}
		key.Reset()
		val.Reset()
		inValue = false
	}
	for _, r := range rest {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			val.WriteRune(r)
		case r == '=' && !inQuotes && !inValue:
			inValue = true
		case r == ',' && !inQuotes:
			flush()
		default:
			if inValue {
				val.WriteRune(r)
			} else {
				key.WriteRune(r)
			}
		}
	}
	flush()
	return parts
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

type digestField struct {
	name  string
	value string
	quote bool
}

type digestInputs struct {
	username  string
	password  string
	method    string
	uri       string
	challenge *digestChallenge
	cnonce    string
	nc        uint32
}

// buildDigestAuthorization implements the ha1/ha2/response construction of
// spec.md section 4.4.
func buildDigestAuthorization(in digestInputs) (string, error) {
	h := newDigestHash(in.challenge.algorithm)
	sess := strings.HasSuffix(in.challenge.algorithm, "-sess")

	ha1 := h(fmt.Sprintf("%s:%s:%s", in.username, in.challenge.realm, in.password))
	if sess {
		ha1 = h(fmt.Sprintf("%s:%s:%s", ha1, in.challenge.nonce, in.cnonce))
	}
	ha2 := h(fmt.Sprintf("%s:%s", in.method, in.uri))

	ncHex := fmt.Sprintf("%08x", in.nc)

	var response string
	if in.challenge.qop != "" {
		response = h(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, in.challenge.nonce, ncHex, in.cnonce, in.challenge.qop, ha2))
	} else {
		response = h(fmt.Sprintf("%s:%s:%s", ha1, in.challenge.nonce, ha2))
	}

	fields := []digestField{
		{"username", in.username, true},
		{"realm", in.challenge.realm, true},
		{"nonce", in.challenge.nonce, true},
		{"uri", in.uri, true},
	}
	if in.challenge.opaque != "" {
		fields = append(fields, digestField{"opaque", in.challenge.opaque, true})
	}
	if in.challenge.qop != "" {
		fields = append(fields, digestField{"qop", in.challenge.qop, false})
	}
	fields = append(fields,
		digestField{"algorithm", in.challenge.algorithm, false},
		digestField{"response", response, true},
	)
	if in.challenge.qop != "" {
		fields = append(fields,
			digestField{"nc", ncHex, false},
			digestField{"cnonce", in.cnonce, true},
		)
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.quote {
			parts = append(parts, fmt.Sprintf(`%s="%s"`, f.name, f.value))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", f.name, f.value))
		}
	}
	return "Digest " + strings.Join(parts, ", "), nil
}

func newDigestHash(algorithm string) func(string) string {
	var newHash func() hash.Hash
	if strings.HasPrefix(algorithm, "SHA-256") {
		newHash = sha256.New
	} else {
		newHash = md5.New
	}
	return func(s string) string {
		h := newHash()
		_, _ = io.WriteString(h, s)
		return hex.EncodeToString(h.Sum(nil))
	}
}
