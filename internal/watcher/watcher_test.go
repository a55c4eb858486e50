package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superfaceai/one-sdk-go/internal/config"
)

const minimalDoc = `{
	"profiles": {"weather": {"version": "1.0.0"}},
	"providers": {"acme": {}}
}`

const updatedDoc = `{
	"profiles": {"weather": {"version": "1.0.0"}, "news": {"version": "2.0.0"}},
	"providers": {"acme": {}}
}`

type capture struct {
	mu      sync.Mutex
	reloads []*config.NormalizedDocument
	errs    []error
}

func (c *capture) onReload(doc *config.NormalizedDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloads = append(c.reloads, doc)
}

func (c *capture) onError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reloads)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Fail(t, "condition not met before timeout")
}

func TestWatcherPerformsInitialLoadOnStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "super.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDoc), 0o644))

	cp := &capture{}
	w, err := New(path, nil, cp.onReload, cp.onError)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	waitFor(t, time.Second, func() bool { return cp.count() == 1 })
	assert.Len(t, cp.reloads[0].Profiles, 1)
}

func TestWatcherReloadsOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "super.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDoc), 0o644))

	cp := &capture{}
	w, err := New(path, nil, cp.onReload, cp.onError)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	waitFor(t, time.Second, func() bool { return cp.count() == 1 })

	require.NoError(t, os.WriteFile(path, []byte(updatedDoc), 0o644))

	waitFor(t, 2*time.Second, func() bool { return cp.count() == 2 })
	assert.Len(t, cp.reloads[1].Profiles, 2)
}

func TestWatcherSkipsReloadWhenContentUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "super.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDoc), 0o644))

	cp := &capture{}
	w, err := New(path, nil, cp.onReload, cp.onError)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	waitFor(t, time.Second, func() bool { return cp.count() == 1 })

	// Rewrite identical content: should not trigger a second reload.
	require.NoError(t, os.WriteFile(path, []byte(minimalDoc), 0o644))
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, 1, cp.count())
}

func TestWatcherReportsParseErrorsWithoutDroppingPreviousDoc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "super.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalDoc), 0o644))

	cp := &capture{}
	w, err := New(path, nil, cp.onReload, cp.onError)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	waitFor(t, time.Second, func() bool { return cp.count() == 1 })

	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	waitFor(t, 2*time.Second, func() bool {
		cp.mu.Lock()
		defer cp.mu.Unlock()
		return len(cp.errs) == 1
	})
	assert.Equal(t, 1, cp.count())
}
