// Package watch re-runs the sync engine when files under the source root
// change.
package watch

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// MaxPendingDirs is the maximum number of directories that can be pending.
// Reaching it flushes immediately.
const MaxPendingDirs = 1000

// Debouncer coalesces bursts of change events (editor autosave, git
// checkout) into one batch of changed directories.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(dirs []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration.
// onFlush receives the sorted set of changed directories once the window
// passes without new events.
func NewDebouncer(window time.Duration, onFlush func(dirs []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change in dir and restarts the window.
func (d *Debouncer) Add(dir string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending[dir] = struct{}{}

	if len(d.pending) >= MaxPendingDirs {
		dirs := d.takeLocked()
		d.mu.Unlock()
		d.deliver(dirs)
		return
	}

	// A timer that already fired finds an empty set and does nothing.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.FlushNow)
	d.mu.Unlock()
}

// FlushNow delivers pending directories without waiting for the window.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	dirs := d.takeLocked()
	d.mu.Unlock()
	d.deliver(dirs)
}

// Stop stops the debouncer. Pending directories are flushed and later
// calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	dirs := d.takeLocked()
	d.mu.Unlock()
	d.deliver(dirs)
}

// PendingCount returns the number of directories waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// takeLocked stops the timer and empties the pending set.
// Caller must hold d.mu.
func (d *Debouncer) takeLocked() []string {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 {
		return nil
	}
	dirs := slices.Sorted(maps.Keys(d.pending))
	d.pending = make(map[string]struct{})
	return dirs
}

// deliver calls the handler outside the lock.
func (d *Debouncer) deliver(dirs []string) {
	if len(dirs) > 0 && d.onFlush != nil {
		d.onFlush(dirs)
	}
}
