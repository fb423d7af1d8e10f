package hotreload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to watched config files. Files are watched through
// their directory so that editors replacing a file by rename are still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	close   sync.Once

	mu         sync.RWMutex
	files      map[string]bool // watched files
	dirs       map[string]bool // directories watched as a whole
	dirRefs    map[string]int  // fsnotify registrations per directory
	isWatching bool
}

// Event represents a change to a watched path
type Event struct {
	Path string
	Op   fsnotify.Op
}

// NewWatcher creates a new file watcher
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		watcher: fsWatcher,
		logger:  logger,
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		dirRefs: make(map[string]int),
	}, nil
}

// Add watches a file or every file of a directory
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", absPath, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := absPath
	if !info.IsDir() {
		dir = filepath.Dir(absPath)
	}
	if w.dirRefs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add path %s: %w", dir, err)
		}
	}
	w.dirRefs[dir]++

	if info.IsDir() {
		w.dirs[absPath] = true
	} else {
		w.files[absPath] = true
	}
	w.logger.Debug("Added watch path", zap.String("path", absPath))
	return nil
}

// Remove stops watching a path added with Add
func (w *Watcher) Remove(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var dir string
	switch {
	case w.files[absPath]:
		delete(w.files, absPath)
		dir = filepath.Dir(absPath)
	case w.dirs[absPath]:
		delete(w.dirs, absPath)
		dir = absPath
	default:
		return fmt.Errorf("path %s is not watched", absPath)
	}

	w.dirRefs[dir]--
	if w.dirRefs[dir] <= 0 {
		delete(w.dirRefs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove path %s: %w", dir, err)
		}
	}

	w.logger.Debug("Removed watch path", zap.String("path", absPath))
	return nil
}

// Paths returns the watched files and directories
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.files)+len(w.dirs))
	for p := range w.files {
		paths = append(paths, p)
	}
	for p := range w.dirs {
		paths = append(paths, p)
	}
	return paths
}

// Events returns the channel for file system events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching for file system events
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.isWatching {
		w.mu.Unlock()
		return
	}
	w.isWatching = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watch()
	w.logger.Info("File watcher started")
}

// Stop stops watching and closes the events channel. A stopped watcher
// cannot be restarted.
func (w *Watcher) Stop() {
	w.close.Do(func() {
		close(w.done)
		w.wg.Wait()
		close(w.events)
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Failed to close file watcher", zap.Error(err))
		}

		w.mu.Lock()
		w.isWatching = false
		w.mu.Unlock()
		w.logger.Info("File watcher stopped")
	})
}

// watch is the main event loop for the watcher
func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}

			w.logger.Debug("File system event",
				zap.String("path", event.Name),
				zap.String("operation", event.Op.String()),
			)
			select {
			case w.events <- Event{Path: event.Name, Op: event.Op}:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// relevant reports whether an event on path concerns a watched file
func (w *Watcher) relevant(path string) bool {
	if shouldSkipEvent(path) {
		return false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path] || w.dirs[filepath.Dir(path)]
}

// shouldSkipEvent filters editor temporaries and hidden files
func shouldSkipEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case base == "" || base == ".":
		return true
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "~"), strings.HasSuffix(base, "~"):
		return true
	case filepath.Ext(base) == ".tmp", filepath.Ext(base) == ".swp":
		return true
	}
	return false
}

// IsWatching returns whether the watcher is currently active
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}
