// Package watcher reloads a configuration when its file changes on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"confkeeper/pkg/logging"
)

const subsystem = "Watcher"

// DefaultDebounce is how long the watcher waits for further changes
// before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Refresher reloads a configuration from disk.
type Refresher interface {
	Refresh() error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that must follow a change before
// the configuration is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnRefresh registers a callback run after every reload attempt.
func WithOnRefresh(fn func(err error)) Option {
	return func(w *Watcher) {
		w.onRefresh = fn
	}
}

// Watcher watches the directory holding one configuration file. Editors
// and atomic writers replace files by rename, so the directory is watched
// rather than the file itself.
type Watcher struct {
	mu sync.Mutex

	path      string
	target    Refresher
	debounce  time.Duration
	onRefresh func(err error)

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// New creates a watcher that calls target.Refresh when path changes.
func New(path string, target Refresher, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It returns once the watch is in place; events are
// handled in the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return err
	}

	w.watcher = fsw
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(ctx, fsw, w.stopCh)

	logging.Info(subsystem, "Started watching %s for changes", w.path)
	return nil
}

// Stop ends the watch and cancels any pending reload. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
		if err != nil {
			logging.Error(subsystem, err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info(subsystem, "Stopped watching %s", w.path)
	return err
}

func (w *Watcher) processEvents(ctx context.Context, fsw *fsnotify.Watcher, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return

		case <-stopCh:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.Error(subsystem, err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		logging.Debug(subsystem, "Ignoring %s on %s", event.Op, event.Name)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.refresh)
}

func (w *Watcher) refresh() {
	w.mu.Lock()
	running := w.running
	w.timer = nil
	w.mu.Unlock()
	if !running {
		return
	}

	err := w.target.Refresh()
	if err != nil {
		logging.Warn(subsystem, "Failed to reload %s: %v", w.path, err)
	} else {
		logging.Debug(subsystem, "Reloaded %s", w.path)
	}
	if w.onRefresh != nil {
		w.onRefresh(err)
	}
}
