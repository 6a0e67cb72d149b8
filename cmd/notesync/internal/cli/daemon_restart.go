package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var daemonRestartFlags struct {
	force bool
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the daemon",
	Long: `Restart the notesync daemon.

This is equivalent to running 'notesync daemon stop' followed by
'notesync daemon start'. The new daemon reloads the configuration.

Examples:
  notesync daemon restart         # Restart the daemon
  notesync daemon restart --watch # Restart and watch for changes
  notesync daemon restart --force # Force restart if graceful stop fails`,
	Args: cobra.NoArgs,
	RunE: runDaemonRestart,
}

func init() {
	daemonRestartCmd.Flags().BoolVar(&daemonRestartFlags.force, "force", false,
		"Force kill if graceful shutdown fails")
	daemonRestartCmd.Flags().BoolVar(&daemonStartFlags.watch, "watch", false,
		"Watch the source tree and re-sync on changes")

	daemonCmd.AddCommand(daemonRestartCmd)
}

func runDaemonRestart(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths()
	if err != nil {
		return err
	}
	if err := stopDaemon(cmd.OutOrStdout(), paths, daemonRestartFlags.force); err != nil {
		return err
	}

	// Give the old process time to release the socket.
	time.Sleep(200 * time.Millisecond)

	fmt.Fprintln(cmd.OutOrStdout(), "Starting daemon...")
	daemonStartFlags.foreground = false
	return runDaemonStart(cmd, args)
}
