package detect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/detect"
	"github.com/albertocavalcante/notesync/pkg/ignore"
)

func TestFormats_Empty(t *testing.T) {
	tmpDir := t.TempDir()

	res, err := detect.Formats(tmpDir, nil)
	if err != nil {
		t.Fatalf("Formats() error = %v", err)
	}
	if len(res.Formats) != 0 {
		t.Errorf("Formats() = %v, want empty", res.Formats)
	}
}

func TestFormats_Mixed(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, "index.md")
	createFile(t, tmpDir, "journal/2024/jan.md")
	createFile(t, tmpDir, "journal/2024/feb.markdown")
	createFile(t, tmpDir, "agenda.org")
	createFile(t, tmpDir, "pic.png")

	res, err := detect.Formats(tmpDir, nil)
	if err != nil {
		t.Fatalf("Formats() error = %v", err)
	}
	if diff := cmp.Diff([]string{"markdown", "org"}, res.Formats); diff != "" {
		t.Errorf("Formats() mismatch (-want +got):\n%s", diff)
	}
	if res.Counts["markdown"] != 3 {
		t.Errorf("markdown count = %d, want 3", res.Counts["markdown"])
	}
}

func TestFormats_IgnoredDirs(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, ".git/notes.md")
	createFile(t, tmpDir, "_rendered/old.md")
	createFile(t, tmpDir, "drafts/wip.rst")

	res, err := detect.Formats(tmpDir, nil)
	if err != nil {
		t.Fatalf("Formats() error = %v", err)
	}
	if diff := cmp.Diff([]string{"rst"}, res.Formats); diff != "" {
		t.Errorf("Formats() mismatch (-want +got):\n%s", diff)
	}

	m, err := ignore.New("drafts")
	if err != nil {
		t.Fatal(err)
	}
	res, err = detect.Formats(tmpDir, m)
	if err != nil {
		t.Fatalf("Formats() error = %v", err)
	}
	if len(res.Formats) != 0 {
		t.Errorf("Formats() = %v, want empty with drafts ignored", res.Formats)
	}
}

func TestFormats_NonexistentDir(t *testing.T) {
	if _, err := detect.Formats("/nonexistent/path/that/does/not/exist", nil); err == nil {
		t.Error("Formats() expected error for nonexistent directory")
	}
}

func TestHasFormat(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, "notes.adoc")

	has, err := detect.HasFormat(tmpDir, "asciidoc")
	if err != nil {
		t.Fatalf("HasFormat() error = %v", err)
	}
	if !has {
		t.Error("HasFormat(asciidoc) = false, want true")
	}

	has, err = detect.HasFormat(tmpDir, "markdown")
	if err != nil {
		t.Fatalf("HasFormat() error = %v", err)
	}
	if has {
		t.Error("HasFormat(markdown) = true, want false")
	}
}

func createFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
}
