package cli

import (
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/daemon"
)

var daemonFlags struct {
	socket string
}

// daemonCmd is the parent command for daemon operations.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the notesync daemon",
	Long: `Manage the notesync background daemon.

The daemon serves one source tree. It keeps the sync engine and the state
records of every output directory in memory, so repeated syncs skip the
disk reads a fresh 'notesync sync' would do. Editors and scripts talk to it
over a Unix socket.

Commands:
  start   - Start the daemon process
  stop    - Stop the running daemon
  status  - Show daemon status
  restart - Restart the daemon
  sync    - Run a sync inside the daemon

Examples:
  notesync daemon start --watch      # Start in background and watch the tree
  notesync daemon start --foreground # Run in the foreground (for debugging)
  notesync daemon sync               # Sync using the daemon's warm state
  notesync daemon stop               # Stop the daemon`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&daemonFlags.socket, "socket", "",
		"Custom socket path (default: ~/.notesync/daemon.sock)")

	rootCmd.AddCommand(daemonCmd)
}

// daemonPaths returns the daemon file paths for the --socket flag or the
// defaults.
func daemonPaths() (*daemon.Paths, error) {
	if daemonFlags.socket != "" {
		socket, err := flagPath(daemonFlags.socket)
		if err != nil {
			return nil, err
		}
		return daemon.SocketPaths(socket), nil
	}
	return daemon.DefaultPaths()
}
