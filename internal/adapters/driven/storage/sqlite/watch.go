package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/leadscout/internal/logger"
)

// DefaultWatchDebounce coalesces bursts of WAL writes into one reload.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watcher calls a reload function when the database file (or its WAL)
// changes on disk, so long-lived processes see writes made by others.
type Watcher struct {
	path     string
	reload   func(ctx context.Context) error
	debounce time.Duration
}

// NewWatcher creates a watcher for the database at dbPath.
func NewWatcher(dbPath string, reload func(ctx context.Context) error) *Watcher {
	return &Watcher{
		path:     dbPath,
		reload:   reload,
		debounce: DefaultWatchDebounce,
	}
}

// Run blocks until ctx is cancelled, reloading after each burst of changes.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: SQLite replaces -wal and -shm files.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	base := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev, base) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case <-timer.C:
			if err := w.reload(ctx); err != nil {
				logger.Warn("watcher: reload failed: %v", err)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event, base string) bool {
	name := filepath.Base(ev.Name)
	if name != base && name != base+"-wal" {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

