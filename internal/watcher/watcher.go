// Package watcher hot-reloads super.json: it watches the configuration
// file's directory with fsnotify, debounces bursts of writes, and calls
// back with a freshly normalized config.NormalizedDocument whenever the
// file's contents actually change.
package watcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

const (
	// configReloadDebounce coalesces bursts of fsnotify events (editors
	// commonly emit write+chmod, or remove+create on atomic replace)
	// into a single reload.
	configReloadDebounce = 150 * time.Millisecond

	// replaceCheckDelay gives an atomic-replace a moment to settle before
	// we trust that a Remove/Rename event really means the file is gone.
	replaceCheckDelay = 50 * time.Millisecond
)

// ReloadFunc is invoked after super.json changes and is successfully
// re-parsed. Any error returned by config.LoadConfigHash is instead reported
// to OnError; ReloadFunc only ever receives a valid document.
type ReloadFunc func(*config.NormalizedDocument)

// ErrorFunc is invoked when a debounced reload fails to read or parse.
// The previous document (from the last successful reload) remains in
// effect; the caller decides whether that's acceptable.
type ErrorFunc func(error)

// Watcher watches a single super.json file for changes and normalizes it
// on every change, grounded on the teacher's internal/watcher.Watcher
// (config_reload.go's debounce-via-time.AfterFunc, hash-change-detection
// pattern), simplified to this spec's single-file scope: no auth
// directory, no per-provider dispatch queue.
type Watcher struct {
	configPath string
	lookup     value.EnvLookup
	onReload   ReloadFunc
	onError    ErrorFunc

	fsw *fsnotify.Watcher

	mu         sync.Mutex
	lastHash   [sha256.Size]byte
	haveHash   bool
	timer      *time.Timer
	cancelFunc context.CancelFunc
}

// New creates a Watcher for configPath. It does not start watching until
// Start is called. lookup resolves $NAME environment references during
// normalization (may be nil to disable resolution, matching
// config.LoadConfig).
func New(configPath string, lookup value.EnvLookup, onReload ReloadFunc, onError ErrorFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		configPath: configPath,
		lookup:     lookup,
		onReload:   onReload,
		onError:    onError,
		fsw:        fsw,
	}, nil
}

// Start begins watching and performs an initial synchronous load so the
// caller has a document before Start returns. It watches the file's
// parent directory, not the file itself, so that editors which replace
// the file (rename-over-rename, common with atomic writers) are still
// observed: the inode watched by fsnotify.Add would otherwise be
// orphaned by the replace.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.configPath)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watcher: failed to watch directory %s: %w", dir, err)
	}
	log.Debugf("watcher: watching directory %s for changes to %s", dir, w.configPath)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	go w.processEvents(runCtx)

	w.reloadIfChanged()
	return nil
}

// Stop releases the underlying fsnotify watcher and stops any pending
// debounce timer. Safe to call more than once.
func (w *Watcher) Stop() error {
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Errorf("watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return
	}

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	if event.Op&relevant == 0 {
		return
	}

	log.Debugf("watcher: event %s on %s", event.Op.String(), event.Name)
	w.scheduleReload()
}

// scheduleReload (re)starts the debounce timer; repeated events collapse
// into the single reload that fires configReloadDebounce after the last
// one.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(configReloadDebounce, w.reloadIfChanged)
}

// reloadIfChanged re-reads the config file and, if its contents hash
// differs from the last successful load, normalizes it and invokes
// onReload. Unchanged content (e.g. a touch with no content change, or a
// Remove immediately followed by an identical Create during an atomic
// replace) is silently skipped so callers never see spurious reloads.
func (w *Watcher) reloadIfChanged() {
	time.Sleep(replaceCheckDelay)

	doc, hash, err := config.LoadConfigHash(w.configPath, w.lookup, func(msg string) { log.Warnf("watcher: %s", msg) })
	if err != nil {
		log.Errorf("watcher: failed to reload %s: %v", w.configPath, err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	unchanged := w.haveHash && hash == w.lastHash
	w.lastHash = hash
	w.haveHash = true
	w.mu.Unlock()

	if unchanged {
		return
	}

	log.Infof("watcher: reloaded %s", w.configPath)
	if w.onReload != nil {
		w.onReload(doc)
	}
}
