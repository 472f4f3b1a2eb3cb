// Package watcher reports changes to individual files, coalescing bursts
// of events (editors often write, rename and chmod in one save).
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when operations are called on a closed Watcher.
var ErrClosed = errors.New("watcher: watcher is closed")

// DefaultPollInterval is used when falling back to polling.
const DefaultPollInterval = time.Second

// Handler is called with the changed files after the debounce window.
type Handler func(paths []string)

// ErrorHandler is called when a watch error occurs.
type ErrorHandler func(err error)

type fileMeta struct {
	ModTime time.Time
	Size    int64
	Exists  bool
}

// Watcher watches a set of files. The parent directory of each file is
// watched so atomic replace-by-rename saves are seen too.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debouncer    *Debouncer
	handler      Handler
	errorHandler ErrorHandler

	pollMode     bool
	pollInterval time.Duration
	closeCh      chan struct{}

	mu      sync.Mutex
	files   map[string]fileMeta // watched file -> last seen metadata
	dirs    map[string]bool
	pending map[string]bool
	closed  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce window.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debouncer = NewDebouncer(d)
		}
	}
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(w *Watcher) {
		w.errorHandler = handler
	}
}

// WithPolling forces stat polling at the given interval instead of
// fsnotify. Zero uses DefaultPollInterval.
func WithPolling(interval time.Duration) Option {
	return func(w *Watcher) {
		w.pollMode = true
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// New creates a Watcher. Falls back to polling if fsnotify cannot start.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher: handler is required")
	}
	w := &Watcher{
		debouncer:    NewDebouncer(DefaultDebounceDuration),
		handler:      handler,
		pollInterval: DefaultPollInterval,
		closeCh:      make(chan struct{}),
		files:        make(map[string]fileMeta),
		dirs:         make(map[string]bool),
		pending:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	if !w.pollMode {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.reportError(fmt.Errorf("fsnotify unavailable, using polling fallback: %w", err))
			w.pollMode = true
		} else {
			w.fsWatcher = fsw
		}
	}

	if w.pollMode {
		go w.runPoll()
	} else {
		go w.run()
	}
	return w, nil
}

// Add starts watching path. The file does not need to exist yet, but its
// directory must.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.files[abs]; ok {
		return nil
	}

	dir := filepath.Dir(abs)
	if !w.pollMode && !w.dirs[dir] {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = stat(abs)
	return nil
}

// Files returns the watched file paths.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.debouncer.Cancel()
	close(w.closeCh)
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			_, watched := w.files[filepath.Clean(event.Name)]
			w.mu.Unlock()
			if watched {
				w.queue(filepath.Clean(event.Name))
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) runPoll() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.closeCh:
			return
		case <-ticker.C:
			var changed []string
			w.mu.Lock()
			for p, prev := range w.files {
				cur := stat(p)
				if cur != prev {
					w.files[p] = cur
					changed = append(changed, p)
				}
			}
			w.mu.Unlock()
			for _, p := range changed {
				w.queue(p)
			}
		}
	}
}

func (w *Watcher) queue(path string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending[path] = true
	w.mu.Unlock()

	w.debouncer.Trigger(w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	w.handler(paths)
}

func (w *Watcher) reportError(err error) {
	if w.errorHandler != nil {
		w.errorHandler(err)
	}
}

func stat(path string) fileMeta {
	info, err := os.Stat(path)
	if err != nil {
		return fileMeta{}
	}
	return fileMeta{ModTime: info.ModTime(), Size: info.Size(), Exists: true}
}
