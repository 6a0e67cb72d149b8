package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/pkg/ignore"
)

// countingSyncer records how often it ran.
type countingSyncer struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (s *countingSyncer) Run(context.Context) (*incremental.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if s.err != nil {
		return nil, s.err
	}
	return &incremental.Report{}, nil
}

func (s *countingSyncer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func newTestWatcher(t *testing.T, syncer Syncer) (*Watcher, string) {
	t.Helper()
	src := t.TempDir()
	m, err := ignore.New("drafts")
	if err != nil {
		t.Fatal(err)
	}
	w, err := New(Config{
		Source:   src,
		Output:   filepath.Join(src, "_rendered"),
		Ignore:   m,
		Debounce: 20 * time.Millisecond,
		Syncer:   syncer,
		Log:      LoggerConfig{Writer: io.Discard},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, src
}

func TestIsWatchLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "not exist", err: &os.PathError{Op: "watch", Path: "/foo", Err: os.ErrNotExist}, expected: false},
		{name: "permission", err: os.ErrPermission, expected: false},
		{name: "ENOSPC", err: &os.PathError{Op: "inotify_add_watch", Path: "/foo", Err: syscall.ENOSPC}, expected: true},
		{name: "message", err: errors.New("too many open files"), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWatchLimitError(tt.err); got != tt.expected {
				t.Errorf("isWatchLimitError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestNewRequiresSyncer(t *testing.T) {
	if _, err := New(Config{Source: t.TempDir()}); err == nil {
		t.Error("New() expected error without syncer")
	}
}

func TestWatcherIgnored(t *testing.T) {
	w, src := newTestWatcher(t, &countingSyncer{})

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(src, "a.md"), false},
		{filepath.Join(src, "journal", "today.md"), false},
		{src, false},
		{filepath.Join(src, "_rendered", "a.html"), true},
		{filepath.Join(src, ".git", "HEAD"), true},
		{filepath.Join(src, "journal", "drafts", "x.md"), true},
		{filepath.Join(src, incremental.StateFileName), true},
		{filepath.Join(filepath.Dir(src), "elsewhere.md"), true},
	}
	for _, tt := range tests {
		if got := w.ignored(tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcherHandleEvent(t *testing.T) {
	w, src := newTestWatcher(t, &countingSyncer{})
	var r recorder
	w.debouncer = NewDebouncer(time.Hour, r.onFlush)

	if err := os.MkdirAll(filepath.Join(src, "journal"), 0o755); err != nil {
		t.Fatal(err)
	}

	w.handleEvent(fsnotify.Event{Name: filepath.Join(src, "a.md"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(src, "journal"), Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(src, "journal", "b.md"), Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(src, "c.md"), Op: fsnotify.Chmod})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(src, "_rendered", "a.html"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(src, ".git", "index"), Op: fsnotify.Write})
	w.debouncer.FlushNow()

	got := r.get()
	want := []string{".", "journal"}
	if len(got) != 1 || !slices.Equal(got[0], want) {
		t.Errorf("flushed %v, want [%v]", got, want)
	}
	if !slices.Contains(w.fsWatcher.WatchList(), filepath.Join(src, "journal")) {
		t.Error("new directory was not added to the watch list")
	}
}

func TestWatcherRunSyncsOnChange(t *testing.T) {
	syncer := &countingSyncer{}
	w, src := newTestWatcher(t, syncer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return syncer.count() >= 1 })
	if err := os.WriteFile(filepath.Join(src, "a.md"), []byte("# A"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return syncer.count() >= 2 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcherRunInitialSyncFailure(t *testing.T) {
	boom := errors.New("boom")
	w, _ := newTestWatcher(t, &countingSyncer{err: boom})

	if err := w.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
}

func TestWatcherCloseNilFsWatcher(t *testing.T) {
	w := &Watcher{fsWatcher: nil}
	if err := w.Close(); err != nil {
		t.Errorf("Close() on nil fsWatcher error = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
