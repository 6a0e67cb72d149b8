package watch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
)

func testReport(rendered ...string) *incremental.Report {
	return &incremental.Report{
		Visited:   []string{"."},
		Rendered:  rendered,
		Indexed:   []string{"."},
		Dirs:      3,
		Documents: 12,
	}
}

func TestLogger_Ready(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.Ready(testReport("a.md"), "/notes", "/notes/_rendered")

	output := buf.String()
	for _, want := range []string{"12 documents", "3 directories", "/notes", "/notes/_rendered", "1 rendered", "ready"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestLogger_FileChanged_Verbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, Verbose: true, NoColor: true})

	logger.FileChanged("journal/today.md", ChangeAdded)

	output := buf.String()
	if !strings.Contains(output, "+ journal/today.md") {
		t.Errorf("expected change line in output: %s", output)
	}
}

func TestLogger_FileChanged_NotVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.FileChanged("journal/today.md", ChangeAdded)

	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got: %s", buf.String())
	}
}

func TestLogger_Syncing(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.Syncing([]string{"journal"})
	if !strings.Contains(buf.String(), "changes in journal") {
		t.Errorf("expected directory in output: %s", buf.String())
	}

	buf.Reset()
	logger.Syncing([]string{"a", "b", "c"})
	if !strings.Contains(buf.String(), "3 directories") {
		t.Errorf("expected directory count in output: %s", buf.String())
	}
}

func TestLogger_Synced(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, NoColor: true})

	logger.Synced(testReport("journal/today.md"))
	if !strings.Contains(buf.String(), "journal/today.md rendered") {
		t.Errorf("expected rendered document in output: %s", buf.String())
	}
	if strings.Contains(buf.String(), "indexed") {
		t.Errorf("indexed directories should only show when verbose: %s", buf.String())
	}

	buf.Reset()
	logger.Synced(&incremental.Report{})
	if !strings.Contains(buf.String(), "up to date") {
		t.Errorf("expected up to date in output: %s", buf.String())
	}
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, NoColor: true})

	logger.Error(errors.New("test error"))

	if !strings.Contains(buf.String(), "error: test error") {
		t.Errorf("expected error message in output: %s", buf.String())
	}
}

func TestLogger_ShutdownAndStats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.Synced(testReport("a.md", "b.md"))
	logger.Synced(testReport())
	logger.Error(errors.New("oops"))

	stats := logger.Stats()
	if stats.SyncCount != 2 || stats.RenderedCount != 2 || stats.ErrorCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	logger.Shutdown()
	if !strings.Contains(buf.String(), "2 syncs, 2 rendered, 1 errors") {
		t.Errorf("expected counts in output: %s", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, JSON: true})

	logger.Ready(testReport(), "/notes", "/out")
	logger.FileChanged("a.md", ChangeModified)
	logger.Synced(testReport("a.md"))
	logger.Error(errors.New("something failed"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d: %s", len(lines), buf.String())
	}
	wantEvents := []string{"ready", "file_changed", "synced", "error"}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("failed to parse JSON %q: %v", line, err)
		}
		if event["event"] != wantEvents[i] {
			t.Errorf("event %d = %v, want %s", i, event["event"], wantEvents[i])
		}
		switch wantEvents[i] {
		case "ready":
			if event["documents"].(float64) != 12 {
				t.Errorf("expected documents=12, got %v", event["documents"])
			}
		case "file_changed":
			if event["change"] != "~" {
				t.Errorf("expected change=~, got %v", event["change"])
			}
		case "error":
			if event["error"] != "something failed" {
				t.Errorf("expected error message, got %v", event["error"])
			}
		}
	}
}
