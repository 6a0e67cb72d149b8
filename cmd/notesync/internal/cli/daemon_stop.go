package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/daemon"
)

var daemonStopFlags struct {
	force bool
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long: `Stop the notesync daemon process.

By default, sends a graceful shutdown request via the socket.
If the daemon doesn't exit within 5 seconds, use --force to
send SIGKILL.

Examples:
  notesync daemon stop         # Graceful shutdown
  notesync daemon stop --force # Force kill if graceful fails`,
	Args: cobra.NoArgs,
	RunE: runDaemonStop,
}

func init() {
	daemonStopCmd.Flags().BoolVar(&daemonStopFlags.force, "force", false,
		"Force kill if graceful shutdown fails")

	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths()
	if err != nil {
		return err
	}
	return stopDaemon(cmd.OutOrStdout(), paths, daemonStopFlags.force)
}

// stopDaemon shuts the daemon down over RPC, falling back to SIGKILL when
// force is set. A daemon that is not running is not an error.
func stopDaemon(out io.Writer, paths *daemon.Paths, force bool) error {
	status := daemon.GetStatus(paths)

	if status.Stale {
		fmt.Fprintln(out, "Daemon not running (cleaning up stale files)")
		return paths.Cleanup()
	}
	if !status.Running {
		fmt.Fprintln(out, "Daemon not running")
		return nil
	}

	fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", status.PID)

	if err := tryGracefulShutdown(paths); err == nil {
		if waitForExit(status.PID, 5*time.Second) {
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		}
	} else if !force {
		// Without a socket the daemon may still honor SIGTERM.
		_ = daemon.StopProcess(status.PID)
		if waitForExit(status.PID, 2*time.Second) {
			fmt.Fprintln(out, "Daemon stopped")
			_ = paths.Cleanup()
			return nil
		}
	}

	if !force {
		fmt.Fprintln(out, "Graceful shutdown timed out. Use --force to kill.")
		return errors.New("shutdown timed out")
	}

	fmt.Fprintln(out, "Forcing shutdown...")
	if err := daemon.KillProcess(status.PID); err != nil && daemon.IsProcessRunning(status.PID) {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	if !waitForExit(status.PID, 2*time.Second) {
		return errors.New("failed to stop daemon")
	}
	fmt.Fprintln(out, "Daemon stopped (forced)")
	return paths.Cleanup()
}

// tryGracefulShutdown asks the daemon to exit via RPC.
func tryGracefulShutdown(paths *daemon.Paths) error {
	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	_, err = client.Shutdown()
	return err
}

// waitForExit polls until the process exits or timeout passes.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !daemon.IsProcessRunning(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
