package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/daemon"
)

var daemonSyncFlags struct {
	full    bool
	json    bool
	verbose bool
}

var daemonSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync inside the daemon",
	Long: `Asks the running daemon to sync its tree and prints the report.

The daemon reuses the state records it already holds in memory. The
output matches 'notesync sync'.`,
	Args: cobra.NoArgs,
	RunE: runDaemonSync,
}

func init() {
	daemonSyncCmd.Flags().BoolVar(&daemonSyncFlags.full, "full", false,
		"Ignore recorded state and rebuild everything")
	daemonSyncCmd.Flags().BoolVar(&daemonSyncFlags.json, "json", false,
		"Output the run report as JSON")
	daemonSyncCmd.Flags().BoolVar(&daemonSyncFlags.verbose, "verbose", false,
		"List every rendered document and rebuilt index")

	daemonCmd.AddCommand(daemonSyncCmd)
}

func runDaemonSync(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths()
	if err != nil {
		return err
	}

	client, err := daemon.Connect(paths.Socket)
	if errors.Is(err, daemon.ErrDaemonNotRunning) {
		return fmt.Errorf("%w (start it with 'notesync daemon start')", err)
	}
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	result, err := client.SyncRun(&daemon.SyncRunParams{Full: daemonSyncFlags.full})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if daemonSyncFlags.json {
		return outputJSON(out, result.Report)
	}
	printSyncReport(out, result.Report, false, daemonSyncFlags.verbose)
	return nil
}
