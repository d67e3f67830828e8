// Package catalog - Catalog file watcher
// Watches the catalog file and refreshes the cache shortly after it
// changes, so rate edits apply before the TTL runs out.
package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"agent-cost/internal/logging"
)

// DefaultDebounce is the quiet period before a change triggers a reload
const DefaultDebounce = 200 * time.Millisecond

// Refresher is what the watcher drives; *Cache implements it
type Refresher interface {
	Invalidate()
	Refresh(ctx context.Context) (*Catalog, error)
}

// Watcher reloads a catalog when its file changes
type Watcher struct {
	path     string
	target   Refresher
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the catalog file at path
func NewWatcher(path string, target Refresher, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve catalog path %q: %w", path, err)
	}
	return &Watcher{
		path:     abs,
		target:   target,
		debounce: debounce,
		logger:   logging.Component("catalog.watcher"),
		watcher:  fw,
	}, nil
}

// Run watches until ctx is cancelled. The parent directory is watched
// because editors and config management replace files rather than write
// them in place.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("Watching pricing catalog", zap.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.logger.Info("Catalog watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Catalog file event",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			w.schedule(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

// schedule restarts the debounce timer
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.target.Invalidate()
		if _, err := w.target.Refresh(ctx); err != nil {
			w.logger.Error("Catalog refresh after change failed", zap.Error(err))
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
