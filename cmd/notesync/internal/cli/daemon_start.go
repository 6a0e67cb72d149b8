package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/daemon"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/internal/log"
)

// daemonStartTimeout bounds how long a background start waits for the PID file.
const daemonStartTimeout = 3 * time.Second

var daemonStartFlags struct {
	foreground bool
	logFile    string
	watch      bool
	debounce   int
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon process",
	Long: `Start the notesync daemon for the configured source tree.

By default, the daemon runs in the background and writes its output to a
log file. Use --foreground to run it in the foreground for debugging.
With --watch the daemon also watches the source tree and re-syncs after
changes, as 'notesync watch' does.

Examples:
  notesync daemon start              # Start in background
  notesync daemon start --watch      # Start and watch for changes
  notesync daemon start --foreground # Run in foreground (Ctrl+C to stop)
  notesync daemon start --socket /tmp/notes.sock`,
	Args: cobra.NoArgs,
	RunE: runDaemonStart,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartFlags.foreground, "foreground", false,
		"Run in foreground (don't daemonize)")
	daemonStartCmd.Flags().StringVar(&daemonStartFlags.logFile, "log", "",
		"Log file path (default: next to the socket)")
	daemonStartCmd.Flags().BoolVar(&daemonStartFlags.watch, "watch", false,
		"Watch the source tree and re-sync on changes")
	daemonStartCmd.Flags().IntVar(&daemonStartFlags.debounce, "debounce", 0,
		"Watch debounce window in milliseconds (default from config)")

	daemonCmd.AddCommand(daemonStartCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	paths, err := daemonPaths()
	if err != nil {
		return err
	}

	status := daemon.GetStatus(paths)
	if status.Running {
		fmt.Fprintf(out, "Daemon already running (PID: %d)\n", status.PID)
		return nil
	}
	if status.Stale {
		if _, err := daemon.CleanupStale(paths); err != nil {
			log.Warn("failed to clean up stale files", "error", err)
		}
	}

	if daemonStartFlags.foreground {
		return runDaemonForeground(cmd, paths)
	}
	return runDaemonBackground(out, paths)
}

// runDaemonForeground serves the configured tree until shutdown.
func runDaemonForeground(cmd *cobra.Command, paths *daemon.Paths) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Both engines share the store so a full rebuild refreshes the cache.
	store, err := incremental.NewCachedStore(incremental.NewFileStore(osfs.New("/")), recordCacheSize)
	if err != nil {
		return err
	}
	// Build once up front so configuration errors surface before listening.
	_, matcher, err := newEngine(cfg, engineOptions{store: store})
	if err != nil {
		return err
	}

	debounce := cfg.Debounce()
	if daemonStartFlags.debounce > 0 {
		debounce = time.Duration(daemonStartFlags.debounce) * time.Millisecond
	}

	handler := daemon.NewHandler(daemon.HandlerConfig{
		Source:   cfg.Sync.Source,
		Output:   cfg.Sync.Output,
		Ignore:   matcher,
		Debounce: debounce,
		NewEngine: func(full bool) (daemon.Engine, error) {
			engine, _, err := newEngine(cfg, engineOptions{full: full, store: store})
			return engine, err
		},
		WatchLog: out,
	})
	server := daemon.NewServer(daemon.ServerConfig{
		Paths:   paths,
		Version: Version,
		Handler: handler,
	})

	fmt.Fprintf(out, "Starting daemon in foreground (PID: %d)\n", os.Getpid())
	fmt.Fprintf(out, "Socket: %s\n", paths.Socket)
	fmt.Fprintf(out, "Source: %s\n", cfg.Sync.Source)
	fmt.Fprintf(out, "Output: %s\n", cfg.Sync.Output)
	fmt.Fprintln(out, "Press Ctrl+C to stop")
	fmt.Fprintln(out)

	if daemonStartFlags.watch {
		if err := handler.StartWatch(debounce); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}

	return server.Start(cmd.Context())
}

// runDaemonBackground re-executes notesync in foreground mode as a
// detached process and waits for it to write its PID file.
func runDaemonBackground(out io.Writer, paths *daemon.Paths) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := paths.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create daemon directory: %w", err)
	}
	logPath := paths.Log
	if daemonStartFlags.logFile != "" {
		logPath = daemonStartFlags.logFile
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	// The child keeps its own handle.
	defer func() { _ = logFile.Close() }()

	child := exec.Command(executable, backgroundArgs()...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.SysProcAttr = detachedProcAttr()
	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = child.Process.Release()

	deadline := time.Now().Add(daemonStartTimeout)
	for !daemon.GetStatus(paths).Running {
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon failed to start (check %s for details)", logPath)
		}
		time.Sleep(100 * time.Millisecond)
	}

	status := daemon.GetStatus(paths)
	fmt.Fprintf(out, "Daemon started (PID: %d)\n", status.PID)
	fmt.Fprintf(out, "Socket: %s\n", paths.Socket)
	fmt.Fprintf(out, "Log: %s\n", logPath)
	return nil
}

// backgroundArgs rebuilds the command line for the detached child. Global
// flags are forwarded so it loads the same configuration.
func backgroundArgs() []string {
	args := []string{
		"--verbosity", strconv.Itoa(globalFlags.verbosity),
		"--log-format", globalFlags.logFormat,
	}
	for _, f := range []struct{ name, value string }{
		{"--config", globalFlags.configFile},
		{"--source", globalFlags.source},
		{"--output", globalFlags.output},
	} {
		if f.value == "" {
			continue
		}
		abs, err := flagPath(f.value)
		if err != nil {
			abs = f.value
		}
		args = append(args, f.name, abs)
	}

	args = append(args, "daemon", "start", "--foreground")
	if daemonFlags.socket != "" {
		socket, err := flagPath(daemonFlags.socket)
		if err != nil {
			socket = daemonFlags.socket
		}
		args = append(args, "--socket", socket)
	}
	if daemonStartFlags.watch {
		args = append(args, "--watch")
	}
	if daemonStartFlags.debounce > 0 {
		args = append(args, "--debounce", strconv.Itoa(daemonStartFlags.debounce))
	}
	return args
}
