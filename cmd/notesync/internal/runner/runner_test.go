package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/runner"
)

func TestFind_SiblingBinary(t *testing.T) {
	// Create temp directory with fake binaries
	tmpDir := t.TempDir()

	notesyncPath := filepath.Join(tmpDir, "notesync")
	rendererPath := filepath.Join(tmpDir, "md2html")

	if err := os.WriteFile(notesyncPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rendererPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithExecutablePath(notesyncPath))
	got, err := r.Find("md2html")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != rendererPath {
		t.Errorf("Find() = %q, want %q", got, rendererPath)
	}
}

func TestFind_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("PATH", tmpDir)
	notesyncPath := filepath.Join(tmpDir, "notesync")

	if err := os.WriteFile(notesyncPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithExecutablePath(notesyncPath))
	for _, name := range []string{"md2html", "", filepath.Join(tmpDir, "missing")} {
		if _, err := r.Find(name); !errors.Is(err, runner.ErrCommandNotFound) {
			t.Errorf("Find(%q) error = %v, want ErrCommandNotFound", name, err)
		}
	}
}

func TestFind_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	script := filepath.Join(tmpDir, "bin", "render")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := runner.New().Find(script)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != script {
		t.Errorf("Find() = %q, want %q", got, script)
	}
}

func TestOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	tmpDir := t.TempDir()
	script := filepath.Join(tmpDir, "upper")
	content := "#!/bin/sh\nprintf '%s:' \"$GREETING\"\ntr a-z A-Z\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithEnv("GREETING=hi"))
	out, err := r.Output(context.Background(), []string{script}, []byte("hello"))
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if string(out) != "hi:HELLO" {
		t.Errorf("Output() = %q, want %q", out, "hi:HELLO")
	}
}

func TestOutput_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	tmpDir := t.TempDir()
	script := filepath.Join(tmpDir, "fail")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'bad input' >&2\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := runner.New().Output(context.Background(), []string{script}, nil)
	if err == nil {
		t.Fatal("Output() expected error for failing command")
	}
	if !strings.Contains(err.Error(), "bad input") {
		t.Errorf("Output() error = %v, want stderr included", err)
	}
}

func TestOutput_Empty(t *testing.T) {
	if _, err := runner.New().Output(context.Background(), nil, nil); !errors.Is(err, runner.ErrCommandNotFound) {
		t.Errorf("Output(nil) error = %v, want ErrCommandNotFound", err)
	}
}
