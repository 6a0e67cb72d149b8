package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/pkg/ignore"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Syncer runs one synchronization pass. *incremental.Engine implements it.
type Syncer interface {
	Run(ctx context.Context) (*incremental.Report, error)
}

// Config configures the watcher.
type Config struct {
	Source   string
	Output   string
	Ignore   *ignore.Matcher
	Debounce time.Duration
	Syncer   Syncer
	Log      LoggerConfig
}

// Watcher watches the source tree and re-syncs after changes.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *Logger
	ctx       context.Context

	// syncMu prevents overlapping sync runs
	syncMu sync.Mutex
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Syncer == nil {
		return nil, errors.New("watch: syncer is required")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	cfg.Source = filepath.Clean(cfg.Source)
	cfg.Output = filepath.Clean(cfg.Output)
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		logger:    NewLogger(cfg.Log),
		ctx:       context.Background(),
	}, nil
}

// Run performs an initial sync and then re-syncs after every debounced
// batch of changes. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.ctx = ctx

	if err := w.addRecursive(w.config.Source); err != nil {
		return fmt.Errorf("failed to watch source: %w", err)
	}

	report, err := w.sync()
	if err != nil {
		return err
	}
	w.logger.Ready(report, w.config.Source, w.config.Output)

	w.debouncer = NewDebouncer(w.config.Debounce, w.handleChangedDirs)
	defer w.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// relPath returns the slash-separated path of p relative to the source
// root, or false when p lies outside it or inside the output tree.
func (w *Watcher) relPath(p string) (string, bool) {
	if within(w.config.Output, p) {
		return "", false
	}
	rel, err := filepath.Rel(w.config.Source, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

// ignored reports whether p should produce no watch or sync activity.
func (w *Watcher) ignored(p string) bool {
	rel, ok := w.relPath(p)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	return filepath.Base(p) == incremental.StateFileName || w.config.Ignore.MatchPath(rel)
}

// addRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !os.IsPermission(err) {
				w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w at %s: %w\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", ErrWatchLimitReached, path, err)
			}
			w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
		}
		return nil
	})
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EMFILE) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if w.ignored(path) {
		return
	}
	rel, _ := w.relPath(path)

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
		if info, err := os.Lstat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
		}
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		// fsnotify drops watches of removed directories itself
		change = ChangeDeleted
	default:
		return // chmod
	}

	w.logger.FileChanged(rel, change)
	w.debouncer.Add(filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel))))
}

// handleChangedDirs is called when the debouncer flushes. The whole tree
// is re-synced; the engine itself skips unchanged directories.
func (w *Watcher) handleChangedDirs(dirs []string) {
	if w.ctx.Err() != nil {
		return
	}
	w.logger.Syncing(dirs)
	if _, err := w.sync(); err != nil {
		w.logger.Error(err)
	}
}

func (w *Watcher) sync() (*incremental.Report, error) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	report, err := w.config.Syncer.Run(w.ctx)
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}
	w.logger.Synced(report)
	return report, nil
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
