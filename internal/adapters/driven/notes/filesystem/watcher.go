package filesystem

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.NoteWatcher = (*Watcher)(nil)

// DefaultDebounce is how long the directory must be quiet before a burst
// of events is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to the notes in a directory.
type Watcher struct {
	dir      string
	debounce time.Duration
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce}
}

// Watch blocks until ctx is cancelled. Creates, writes, removes and
// renames of note files are coalesced, and onChange runs once per quiet
// period on the watching goroutine.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	// Reset and Stop never leave a stale tick on C (Go 1.23 timers).
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Debug("notes changed: %s %s", event.Op, event.Name)
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("notes watcher: %v", err)

		case <-timer.C:
			onChange()
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !IsNote(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
