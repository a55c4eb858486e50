package onesdk

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/config"
)

// boundProvider is a cached profile-provider binding: the parsed map AST,
// its declared services, and the provider's configured security values.
// Per-call security overrides are applied on top of the cached security
// values at perform time rather than baked into the cache entry, since
// the cache is shared across calls that may each carry different
// overrides.
type boundProvider struct {
	document  *ast.MapDocument
	services  map[string]string
	security  []config.SecurityValue
	expiresAt time.Time
}

// bindFunc performs the actual (possibly slow: registry fetch, file read)
// work of producing a boundProvider for one (profile, provider, mapVariant,
// mapRevision) combination.
type bindFunc func(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*boundProvider, error)

// providerCache implements get-or-compute semantics: concurrent misses on
// the same key share one bind operation via singleflight, and an entry
// past its TTL is returned immediately to the caller while a background
// re-bind (itself coalesced) refreshes it for the next lookup.
type providerCache struct {
	mu      sync.RWMutex
	entries map[string]*boundProvider
	group   singleflight.Group
	ttl     time.Duration
	bind    bindFunc
}

func newProviderCache(ttl time.Duration, bind bindFunc) *providerCache {
	return &providerCache{entries: map[string]*boundProvider{}, ttl: ttl, bind: bind}
}

func cacheKey(profileID, providerID, mapVariant, mapRevision string) string {
	return profileID + "\x00" + providerID + "\x00" + mapVariant + "\x00" + mapRevision
}

// get returns the cached entry for key, binding it (sharing one in-flight
// bind across concurrent callers) on a cold cache, or kicking off a
// background re-bind and returning the stale entry when past its TTL.
func (c *providerCache) get(ctx context.Context, key, profileID, providerID, mapVariant, mapRevision string) (*boundProvider, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		if time.Now().Before(entry.expiresAt) {
			return entry, nil
		}
		c.refreshInBackground(key, profileID, providerID, mapVariant, mapRevision)
		return entry, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		bound, err := c.bind(ctx, profileID, providerID, mapVariant, mapRevision)
		if err != nil {
			return nil, err
		}
		bound.expiresAt = time.Now().Add(c.ttl)
		c.mu.Lock()
		c.entries[key] = bound
		c.mu.Unlock()
		return bound, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*boundProvider), nil
}

func (c *providerCache) refreshInBackground(key, profileID, providerID, mapVariant, mapRevision string) {
	go func() {
		c.group.Do(key, func() (any, error) {
			bound, err := c.bind(context.Background(), profileID, providerID, mapVariant, mapRevision)
			if err != nil {
				return nil, err
			}
			bound.expiresAt = time.Now().Add(c.ttl)
			c.mu.Lock()
			c.entries[key] = bound
			c.mu.Unlock()
			return bound, nil
		})
	}()
}

// invalidate drops every cache entry for profileID, used by the
// configuration watcher when super.json changes underneath the client.
func (c *providerCache) invalidate(profileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := profileID + "\x00"
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}
