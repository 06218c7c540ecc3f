package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/internal/utils"
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchDebounce sets the debounce duration for file change events.
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for the watcher.
func WithWatchLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// Watcher re-runs a callback when Go source under the watched package
// patterns changes. Bursts of events are collapsed into one call.
type Watcher struct {
	roots    []utils.PatternRoot
	debounce time.Duration
	logger   *slog.Logger
	onChange func(ctx context.Context, changed []string)

	fsWatcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time // path -> last event time
}

// NewWatcher creates a Watcher for patterns resolved against dir.
func NewWatcher(dir string, patterns []string, onChange func(ctx context.Context, changed []string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		roots:    utils.PatternRoots(dir, patterns),
		debounce: 300 * time.Millisecond,
		logger:   slog.Default(),
		onChange: onChange,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. Directories created later under a recursive
// root are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapWithOperation("create", "file watcher", err)
	}
	w.fsWatcher = fsw
	defer fsw.Close()

	dirs, err := w.watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return errors.WrapFileSystemError("watch", dir, err)
		}
	}
	w.logger.Debug("watching", "dirs", len(dirs), "debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "err", err)

		case <-ticker.C:
			if changed := w.ready(); len(changed) > 0 {
				w.onChange(ctx, changed)
			}
		}
	}
}

// watchDirs lists every directory to watch: the package directories plus
// the roots themselves so new files and packages are seen.
func (w *Watcher) watchDirs() ([]string, error) {
	dirs, err := utils.PackageDirs(w.roots)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		seen[d] = true
	}
	for _, root := range w.roots {
		if !seen[root.Dir] {
			seen[root.Dir] = true
			dirs = append(dirs, root.Dir)
		}
	}
	return dirs, nil
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
			return
		}
	}
	if !isGoSource(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// addDir watches a directory created under a recursive root.
func (w *Watcher) addDir(dir string) {
	parent := filepath.Dir(dir)
	for _, root := range w.roots {
		if !root.Recursive {
			continue
		}
		if parent != root.Dir && !strings.HasPrefix(parent, root.Dir+string(filepath.Separator)) {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			w.logger.Error("file watcher: watch new directory", "dir", dir, "err", err)
		}
		return
	}
}

// ready removes and returns the pending paths that have been quiet for a
// full debounce period.
func (w *Watcher) ready() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var changed []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			changed = append(changed, path)
		}
	}
	for _, path := range changed {
		delete(w.pending, path)
	}
	sort.Strings(changed)
	return changed
}

func isGoSource(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}
