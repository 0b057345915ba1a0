package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a callback when the recovered tree changes on disk.
//
// Convenience wrapper around one-shot reconstruction: events are debounced
// into batches and the callback receives the batch of changed paths. Each
// trigger is expected to perform a fresh one-shot run over a new snapshot —
// the watcher keeps no analysis state of its own.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange func(changed []string)
	logger   *slog.Logger

	// pending accumulates paths between the first event of a batch and the
	// debounce timer firing.
	pending map[string]struct{}
	timer   *time.Timer
	mu      sync.Mutex

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher over root. onChange is invoked from a
// background goroutine with the debounced batch of changed relative paths.
func NewWatcher(root string, debounce time.Duration, onChange func(changed []string), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		watcher:  fsw,
		root:     root,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}, nil
}

// Start adds the root and all non-ignored subdirectories to the watch and
// begins the event loop in a background goroutine.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up watches: %w", err)
	}

	w.logger.Info("watching recovered tree", "root", w.root)
	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
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
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if ignoredPath(rel) {
		return
	}

	// New directories must be added to the watch to see their files.
	if event.Op&fsnotify.Create != 0 {
		if info, serr := os.Stat(event.Name); serr == nil && info.IsDir() {
			if !ignoredDir(filepath.Base(event.Name)) {
				if aerr := w.watcher.Add(event.Name); aerr != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "error", aerr)
				}
			}
			return
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[rel] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush delivers the accumulated batch to the callback.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	w.logger.Debug("change batch", "files", len(changed))
	w.onChange(changed)
}

func ignoredDir(name string) bool {
	switch name {
	case "node_modules", "dist", "build", ".git":
		return true
	}
	return false
}

func ignoredPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if ignoredDir(part) {
			return true
		}
	}
	return false
}
