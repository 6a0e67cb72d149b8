// Package runner finds and executes external renderer programs.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrCommandNotFound is returned when a program cannot be located.
var ErrCommandNotFound = errors.New("command not found")

// Runner locates programs and runs them with captured output.
type Runner struct {
	executablePath string // Path to the notesync executable (for finding siblings)
	env            []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutablePath sets the path to the notesync executable.
// Used primarily for testing.
func WithExecutablePath(path string) Option {
	return func(r *Runner) {
		r.executablePath = path
	}
}

// WithEnv appends KEY=VALUE pairs to the environment of started programs.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// New creates a new Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Find locates name using the following search order:
// 1. name itself, when it contains a path separator
// 2. Sibling binary next to the notesync executable
// 3. PATH lookup
func (r *Runner) Find(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty program name", ErrCommandNotFound)
	}

	// 1. Explicit path
	if strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		if fileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}

	// 2. Sibling binary
	if path := r.findSibling(name); path != "" {
		return path, nil
	}

	// 3. PATH
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
}

// findSibling looks for name next to the notesync binary.
func (r *Runner) findSibling(name string) string {
	exe := r.executablePath
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return ""
		}
	}
	sibling := filepath.Join(filepath.Dir(exe), name)
	if fileExists(sibling) {
		return sibling
	}
	return ""
}

// Output runs argv with stdin attached and returns its standard output.
// A failing program's standard error is included in the returned error.
func (r *Runner) Output(ctx context.Context, argv []string, stdin []byte) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrCommandNotFound)
	}
	path, err := r.Find(argv[0])
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Stdin = bytes.NewReader(stdin)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", argv[0], err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return stdout.Bytes(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
