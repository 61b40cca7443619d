// Package watch re-runs a request whenever one of the files it depends on
// is saved.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a fixed set of files. It watches their
// directories so files replaced by rename are still seen. Changes arriving
// within the quiet period of each other are reported together.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     []string
	quiet    time.Duration
	timer    *time.Timer
	pending  map[string]bool
	changes  chan []string
	logger   *zap.Logger
	watching bool
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a watcher for paths. Missing files are fine as long as their
// directory exists.
func New(paths []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		files:   make(map[string]bool),
		quiet:   debounce,
		pending: make(map[string]bool),
		changes: make(chan []string, 1),
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Changes delivers the sorted paths changed during a burst, once the burst
// has been quiet for the debounce period.
func (w *Watcher) Changes() <-chan []string { return w.changes }

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.Resume(); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.mu.Lock()
	w.dropPending()
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Debug("closing watcher", zap.Error(err))
	}
}

// Pause unwatches every directory, so writes made while the request runs
// do not trigger another run.
func (w *Watcher) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watching {
		return
	}
	w.watching = false
	w.dropPending()
	for _, dir := range w.dirs {
		_ = w.watcher.Remove(dir)
	}
}

// Resume watches every directory again.
func (w *Watcher) Resume() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}
	var errs []error
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			errs = append(errs, err)
		}
	}
	w.watching = true
	return errors.Join(errs...)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[path] || !w.watching {
		return
	}

	w.logger.Debug("file changed", zap.String("path", path), zap.String("op", event.Op.String()))
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.quiet, w.flush)
}

// flush hands the pending burst to Changes. A burst is dropped when the
// previous one has not been picked up yet.
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	select {
	case w.changes <- paths:
	default:
	}
}

// dropPending forgets the current burst. Callers hold w.mu.
func (w *Watcher) dropPending() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]bool)
}

// Loop calls run once per change until ctx is done. The watcher is paused
// while run executes. Errors from run are logged and do not stop the loop.
func Loop(ctx context.Context, w *Watcher, logger *zap.Logger, run func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		logger.Info("# Watching for changes...")
		select {
		case <-ctx.Done():
			return nil
		case paths := <-w.Changes():
			logger.Debug("running after change", zap.Strings("paths", paths))
		}

		w.Pause()
		if err := run(ctx); err != nil {
			logger.Error("# " + err.Error())
		}
		if err := w.Resume(); err != nil {
			return err
		}
	}
}
