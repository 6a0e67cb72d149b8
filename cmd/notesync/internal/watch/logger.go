package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger handles watch mode output formatting.
type Logger struct {
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	statsMu sync.Mutex
	stats   WatchStats
}

// WatchStats tracks statistics for the watch session.
type WatchStats struct {
	SyncCount     int
	RenderedCount int
	ErrorCount    int
	StartTime     time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats: WatchStats{
			StartTime: time.Now(),
		},
	}
}

// Ready logs that the initial sync finished and watching started.
func (l *Logger) Ready(report *incremental.Report, source, output string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":     "ready",
			"dirs":      report.Dirs,
			"documents": report.Documents,
			"rendered":  len(report.Rendered),
			"source":    source,
			"output":    output,
		})
		return
	}

	l.printf("notesync: watching %d documents in %d directories under %s\n", report.Documents, report.Dirs, source)
	l.printf("notesync: output %s (%d rendered on startup)\n", output, len(report.Rendered))
	l.println("notesync: ready")
	l.println()
}

// FileChanged logs a file change event.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Syncing logs that a sync triggered by changes in dirs is starting.
func (l *Logger) Syncing(dirs []string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "syncing",
			"dirs":  dirs,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	if len(dirs) == 1 {
		l.printf("[%s] syncing after changes in %s...\n", l.timestamp(), dirs[0])
	} else {
		l.printf("[%s] syncing after changes in %d directories...\n", l.timestamp(), len(dirs))
	}
}

// Synced logs a finished sync.
func (l *Logger) Synced(report *incremental.Report) {
	l.statsMu.Lock()
	l.stats.SyncCount++
	l.stats.RenderedCount += len(report.Rendered)
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":    "synced",
			"rendered": report.Rendered,
			"indexed":  report.Indexed,
			"visited":  len(report.Visited),
			"time":     time.Now().Format(time.RFC3339),
		})
		return
	}

	checkmark := l.colorize("✓", ChangeAdded)
	if report.IsEmpty() {
		l.printf("[%s] %s up to date\n", l.timestamp(), checkmark)
		return
	}
	for _, doc := range report.Rendered {
		l.printf("[%s] %s %s rendered\n", l.timestamp(), checkmark, doc)
	}
	if l.verbose {
		for _, dir := range report.Indexed {
			l.printf("[%s] %s %s indexed\n", l.timestamp(), checkmark, dir)
		}
	}
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.statsMu.Lock()
	l.stats.ErrorCount++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	xmark := l.colorize("✗", ChangeDeleted)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":    "shutdown",
			"syncs":    stats.SyncCount,
			"rendered": stats.RenderedCount,
			"errors":   stats.ErrorCount,
			"duration": time.Since(stats.StartTime).String(),
		})
		return
	}

	l.println()
	l.printf("notesync: shutting down (%d syncs, %d rendered, %d errors)\n",
		stats.SyncCount, stats.RenderedCount, stats.ErrorCount)
}

// Stats returns the current watch statistics.
func (l *Logger) Stats() WatchStats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// timestamp returns the current time formatted as HH:MM:SS.
func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize applies ANSI color codes based on change type.
func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m" // green
	case ChangeModified:
		color = "\033[33m" // yellow
	case ChangeDeleted:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

// printf and println drop write errors; the output is informational.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}
