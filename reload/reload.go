// Package reload watches generated bundle artifacts during development
// and broadcasts an invalidation whenever they change, so connected
// renderers can re-mount against the fresh bundle.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher broadcasts a signal to all subscribers whenever one of the
// watched files changes on disk.
type Watcher struct {
	log   *slog.Logger
	paths map[string]struct{} // absolute paths of watched files
	dirs  []string            // parent directories to register with fsnotify

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for watch diagnostics. The default discards
// all records.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWatcher builds a watcher over the given bundle files. Parent
// directories are watched rather than the files themselves so that
// editors and bundlers that replace files atomically are still observed.
func NewWatcher(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("reload: at least one path is required")
	}

	w := &Watcher{
		log:   slog.New(slog.DiscardHandler),
		paths: make(map[string]struct{}, len(paths)),
		subs:  make(map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	seenDirs := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("reload: failed to resolve %q: %w", p, err)
		}
		w.paths[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}

	return w, nil
}

// Run watches until the context is cancelled. It should be started once,
// typically alongside the HTTP server.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("reload: failed to create watcher: %w", err)
	}
	defer func() {
		// Best-effort watcher close; no actionable error handling path.
		_ = fsw.Close()
	}()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("reload: failed to watch %q: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, watched := w.paths[abs]; !watched {
				continue
			}
			w.log.Debug("bundle changed", slog.String("path", abs), slog.String("op", ev.Op.String()))
			w.notifyAll()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Debug("watch error", slog.String("err", err.Error()))
		}
	}
}

// Subscribe registers for change notifications. The returned channel
// receives one value per broadcast (coalesced if the subscriber is
// slow). The cancel function must be called to release the
// subscription.
func (w *Watcher) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	w.mu.Lock()
	w.subs[ch] = struct{}{}
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		delete(w.subs, ch)
		w.mu.Unlock()
	}

	return ch, cancel
}

func (w *Watcher) notifyAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber already has a pending signal.
		}
	}
}
