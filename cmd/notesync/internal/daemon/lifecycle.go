package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Daemon files live under the user's home directory, never inside a source
// tree, so the daemon's own log writes do not trigger syncs.
const (
	DefaultDaemonDir  = ".notesync"
	DefaultSocketName = "daemon.sock"
	DefaultPIDName    = "daemon.pid"
	DefaultLogName    = "daemon.log"
)

// Paths holds the paths for daemon files.
type Paths struct {
	Dir    string // directory containing daemon files
	Socket string // Unix socket path
	PID    string // PID file path
	Log    string // Log file path
}

// DefaultPaths returns the daemon file paths under ~/.notesync.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return DirPaths(filepath.Join(homeDir, DefaultDaemonDir)), nil
}

// DirPaths returns daemon file paths inside dir.
func DirPaths(dir string) *Paths {
	return &Paths{
		Dir:    dir,
		Socket: filepath.Join(dir, DefaultSocketName),
		PID:    filepath.Join(dir, DefaultPIDName),
		Log:    filepath.Join(dir, DefaultLogName),
	}
}

// SocketPaths derives the PID and log paths from a custom socket path.
func SocketPaths(socket string) *Paths {
	return &Paths{
		Dir:    filepath.Dir(socket),
		Socket: socket,
		PID:    socket + ".pid",
		Log:    socket + ".log",
	}
}

// EnsureDir ensures the daemon directory exists with owner-only permissions.
func (p *Paths) EnsureDir() error {
	return os.MkdirAll(p.Dir, 0o700)
}

// WritePID writes the current process ID to the PID file.
func (p *Paths) WritePID() error {
	if err := p.EnsureDir(); err != nil {
		return err
	}
	return os.WriteFile(p.PID, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

// ReadPID reads the process ID from the PID file.
func (p *Paths) ReadPID() (int, error) {
	data, err := os.ReadFile(p.PID)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file contents: %w", err)
	}
	return pid, nil
}

// Cleanup removes the PID and socket files. Missing files are not an error.
func (p *Paths) Cleanup() error {
	var errs []error
	if err := os.Remove(p.PID); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove PID file: %w", err))
	}
	if err := os.Remove(p.Socket); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove socket: %w", err))
	}
	return errors.Join(errs...)
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 checks for existence.
	return process.Signal(syscall.Signal(0)) == nil
}

// Status is the daemon state as seen from its files.
type Status struct {
	Running    bool
	PID        int
	SocketPath string
	Stale      bool // PID file exists but the process is gone
}

// GetStatus returns the current daemon status. A nil paths reports a
// daemon that is not running.
func GetStatus(paths *Paths) *Status {
	if paths == nil {
		return &Status{}
	}

	status := &Status{SocketPath: paths.Socket}
	pid, err := paths.ReadPID()
	if err != nil {
		return status
	}

	status.PID = pid
	if IsProcessRunning(pid) {
		status.Running = true
	} else {
		status.Stale = true
	}
	return status
}

// CleanupStale removes daemon files left behind by a daemon that is no
// longer running, including an orphaned socket without a PID file. It
// reports whether anything was removed.
func CleanupStale(paths *Paths) (bool, error) {
	if paths == nil {
		return false, nil
	}
	status := GetStatus(paths)
	if status.Running {
		return false, nil
	}

	if !status.Stale {
		if _, err := os.Stat(paths.Socket); err != nil {
			return false, nil
		}
		if err := os.Remove(paths.Socket); err != nil {
			return false, fmt.Errorf("failed to remove orphan socket: %w", err)
		}
		return true, nil
	}

	if err := paths.Cleanup(); err != nil {
		return false, err
	}
	return true, nil
}

// StopProcess sends SIGTERM to a process.
func StopProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	return process.Signal(syscall.SIGTERM)
}

// KillProcess sends SIGKILL to a process.
func KillProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	return process.Signal(syscall.SIGKILL)
}
