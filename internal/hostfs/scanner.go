// Package hostfs is a reference implementation of the local path
// scanning collaborator the provider depends on but does not itself
// implement: watching a directory tree for changes and reporting them,
// debounced, as relative-path events a caller can turn into index
// entries.
package hostfs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/atomic"
)

// Scanner watches one or more local paths and reports debounced change
// events relative to the root they were registered under.
type Scanner interface {
	// Watch registers path (a file or, recursively, a directory) for
	// change notification relative to root.
	Watch(root, path string) error
	Events() <-chan ChangeEvent
	Errors() <-chan error
	Close() error
}

// Watcher is an fsnotify-backed Scanner.
type Watcher struct {
	watcher *fsnotify.Watcher
	cfg     Config
	log     *slog.Logger

	events chan ChangeEvent
	errs   chan error

	mu      sync.RWMutex
	roots   map[string]string // watched absolute path -> root it's relative to
	stopped chan struct{}
	wg      sync.WaitGroup
	closed  bool

	// debounceTimers collapses a burst of fsnotify deliveries for the
	// same path (editors commonly write-then-rename-then-chmod a single
	// save) into one ChangeEvent. Keyed by the raw event path rather
	// than the relativized one: two different watched roots can't
	// legitimately overlap the same absolute path, so this is already
	// the narrowest key that's still correct.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	eventsEmitted atomic.Int64
	eventsDropped atomic.Int64
	errorsEmitted atomic.Int64
}

// Stats reports running counts useful for diagnostics; it is safe to
// call concurrently with Watch/Close.
type Stats struct {
	EventsEmitted int64
	EventsDropped int64
	ErrorsEmitted int64
}

// Stats returns a snapshot of the watcher's running counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		EventsEmitted: w.eventsEmitted.Load(),
		EventsDropped: w.eventsDropped.Load(),
		ErrorsEmitted: w.errorsEmitted.Load(),
	}
}

// New constructs a Watcher and starts its event loop; callers must
// Close it when done.
func New(cfg Config) (*Watcher, error) {
	cfg = cfg.withDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hostfs: new fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:        fsw,
		cfg:            cfg,
		log:            cfg.Log.With(slog.String("op", "hostfs.Watcher")),
		events:         make(chan ChangeEvent, cfg.BufferSize),
		errs:           make(chan error, cfg.BufferSize),
		roots:          make(map[string]string),
		stopped:        make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch adds path (file or directory, recursively) to the watch set.
// Reported events for anything under path carry paths relative to root.
func (w *Watcher) Watch(root, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrScannerClosed
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	if !info.IsDir() {
		if err := w.watcher.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("hostfs: watch %s: %w", path, err)
		}
		w.roots[filepath.Dir(path)] = root
		return nil
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("hostfs: watch directory %s: %w", p, err)
		}
		w.roots[p] = root
		return nil
	})
}

func (w *Watcher) Events() <-chan ChangeEvent { return w.events }
func (w *Watcher) Errors() <-chan error       { return w.errs }

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopped:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldProcess(ev) {
				w.process(ev)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

func (w *Watcher) shouldProcess(ev fsnotify.Event) bool {
	if ev.Op&WatchedOps == 0 {
		return false
	}
	for _, pattern := range w.cfg.IgnorePatterns {
		if strings.Contains(ev.Name, pattern) {
			w.log.Debug("ignoring event", slog.String("path", ev.Name), slog.String("pattern", pattern))
			return false
		}
	}
	return true
}

func (w *Watcher) process(ev fsnotify.Event) {
	w.debounce(ev.Name, func() {
		w.mu.RLock()
		root, ok := w.roots[filepath.Dir(ev.Name)]
		w.mu.RUnlock()
		if !ok {
			root = filepath.Dir(ev.Name)
		}

		rel, err := filepath.Rel(root, ev.Name)
		if err != nil {
			w.emitError(fmt.Errorf("hostfs: relativize %s: %w", ev.Name, err))
			return
		}

		select {
		case w.events <- ChangeEvent{
			AbsolutePath: ev.Name,
			RelativePath: filepath.ToSlash(rel),
			Op:           ev.Op,
			Time:         time.Now(),
		}:
			w.eventsEmitted.Add(1)
		default:
			w.eventsDropped.Add(1)
			w.log.Warn("event buffer full, dropping change", slog.String("path", ev.Name))
		}
	})
}

// debounce collapses repeated calls for the same key into one firing of
// fn after cfg.DebounceDuration has elapsed with no further calls for
// that key.
func (w *Watcher) debounce(key string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[key]; exists {
		timer.Stop()
	}

	w.debounceTimers[key] = time.AfterFunc(w.cfg.DebounceDuration, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, key)
		w.debounceMu.Unlock()
		fn()
	})
}

// stopDebounce cancels every pending debounce timer without firing fn.
func (w *Watcher) stopDebounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	for key, timer := range w.debounceTimers {
		timer.Stop()
		delete(w.debounceTimers, key)
	}
}

func (w *Watcher) emitError(err error) {
	w.errorsEmitted.Add(1)
	select {
	case w.errs <- err:
	default:
		w.log.Warn("error buffer full, dropping error", slog.String("error", err.Error()))
	}
}

// Close stops the watch loop and releases the underlying fsnotify
// watcher. Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stopped)
	w.wg.Wait()
	w.stopDebounce()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("hostfs: close watcher: %w", err)
	}
	return nil
}
