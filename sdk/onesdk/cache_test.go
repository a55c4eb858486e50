package onesdk

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superfaceai/one-sdk-go/internal/ast"
)

func TestProviderCacheCoalescesConcurrentMisses(t *testing.T) {
	var binds int32
	cache := newProviderCache(time.Minute, func(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*boundProvider, error) {
		atomic.AddInt32(&binds, 1)
		time.Sleep(10 * time.Millisecond)
		return &boundProvider{document: &ast.MapDocument{}}, nil
	})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_, err := cache.get(context.Background(), "k", "profile", "provider", "", "")
			assert.NoError(t, err)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&binds))
}

func TestProviderCacheReturnsStaleEntryAndRefreshesInBackground(t *testing.T) {
	var binds int32
	cache := newProviderCache(5*time.Millisecond, func(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*boundProvider, error) {
		n := atomic.AddInt32(&binds, 1)
		return &boundProvider{document: &ast.MapDocument{Profile: string(rune('0' + n))}}, nil
	})

	first, err := cache.get(context.Background(), "k", "profile", "provider", "", "")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&binds))

	time.Sleep(10 * time.Millisecond)

	stale, err := cache.get(context.Background(), "k", "profile", "provider", "", "")
	require.NoError(t, err)
	assert.Same(t, first, stale)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&binds) >= 2
	}, time.Second, time.Millisecond)
}

func TestProviderCacheInvalidateDropsMatchingEntries(t *testing.T) {
	cache := newProviderCache(time.Minute, func(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*boundProvider, error) {
		return &boundProvider{document: &ast.MapDocument{}}, nil
	})

	_, err := cache.get(context.Background(), cacheKey("p1", "prov", "", ""), "p1", "prov", "", "")
	require.NoError(t, err)
	_, err = cache.get(context.Background(), cacheKey("p2", "prov", "", ""), "p2", "prov", "", "")
	require.NoError(t, err)

	cache.invalidate("p1")

	cache.mu.RLock()
	_, p1Present := cache.entries[cacheKey("p1", "prov", "", "")]
	_, p2Present := cache.entries[cacheKey("p2", "prov", "", "")]
	cache.mu.RUnlock()

	assert.False(t, p1Present)
	assert.True(t, p2Present)
}
