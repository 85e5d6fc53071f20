// Package watch re-runs a callback whenever a schema file changes.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/prisma-edge/internal/debug"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func() error
	onError  func(error)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stop     sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithErrorHandler receives callback and watcher errors after Start.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher creates a new file watcher
func NewWatcher(file string, callback func() error, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get absolute path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}
	// Editors replace files on save, so the directory is watched.
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, errors.Wrap(err, "failed to watch directory")
	}

	w := &Watcher{
		file:     absPath,
		callback: callback,
		debounce: DefaultDebounce,
		watcher:  fw,
		done:     make(chan struct{}),
		onError: func(err error) {
			debug.Warn("Watch callback failed", "error", err)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start runs the callback once, then again after each change.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return errors.Wrap(err, "initial callback failed")
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if path, err := filepath.Abs(event.Name); err == nil && path == w.file {
				timer.Reset(w.debounce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			if err := w.callback(); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.onError(errors.Wrap(err, "watch"))

		case <-w.done:
			timer.Stop()
			return
		}
	}
}

// Stop stops watching the file. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
