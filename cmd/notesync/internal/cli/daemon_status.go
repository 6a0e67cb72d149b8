package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/daemon"
)

var daemonStatusFlags struct {
	json bool
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Show the status of the notesync daemon.

Displays whether the daemon is running, its PID, socket path, uptime,
the tree it serves, its watch state and how many directories are stale.

Examples:
  notesync daemon status        # Show status as text
  notesync daemon status --json # Show status as JSON`,
	Args: cobra.NoArgs,
	RunE: runDaemonStatus,
}

func init() {
	daemonStatusCmd.Flags().BoolVar(&daemonStatusFlags.json, "json", false,
		"Output as JSON")

	daemonCmd.AddCommand(daemonStatusCmd)
}

// DaemonStatusOutput is the JSON output format for daemon status.
type DaemonStatusOutput struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid,omitempty"`
	SocketPath string `json:"socket_path"`
	Version    string `json:"version,omitempty"`
	Uptime     string `json:"uptime,omitempty"`
	StartTime  string `json:"start_time,omitempty"`
	Source     string `json:"source,omitempty"`
	Output     string `json:"output,omitempty"`
	Clients    int    `json:"connected_clients,omitempty"`
	Watching   bool   `json:"watching"`
	SyncCount  int    `json:"sync_count,omitempty"`
	LastSync   string `json:"last_sync,omitempty"`
	StaleDirs  int    `json:"stale_dirs,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths()
	if err != nil {
		return err
	}

	status := daemon.GetStatus(paths)
	output := DaemonStatusOutput{
		Running:    status.Running,
		PID:        status.PID,
		SocketPath: paths.Socket,
	}

	if status.Running {
		if err := enrichStatusFromDaemon(paths, &output); err != nil {
			output.Error = err.Error()
		}
	} else if status.Stale {
		output.Error = "stale PID file (daemon crashed)"
	}

	if daemonStatusFlags.json {
		return outputJSON(cmd.OutOrStdout(), output)
	}
	printDaemonStatus(cmd.OutOrStdout(), output, status)
	return nil
}

// enrichStatusFromDaemon asks the running daemon for its details.
func enrichStatusFromDaemon(paths *daemon.Paths, output *DaemonStatusOutput) error {
	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	ping, err := client.Ping()
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	output.Version = ping.Version
	output.Uptime = ping.Uptime
	output.StartTime = ping.StartTime
	output.Source = ping.Source
	output.Output = ping.Output
	output.Clients = ping.Clients

	watchStatus, err := client.WatchStatus()
	if err != nil {
		return fmt.Errorf("watch status failed: %w", err)
	}
	output.Watching = watchStatus.Watching
	output.SyncCount = watchStatus.SyncCount
	output.LastSync = watchStatus.LastSync

	stale, err := client.StatusGet()
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	output.StaleDirs = len(stale.StaleDirs)
	return nil
}

func printDaemonStatus(w io.Writer, output DaemonStatusOutput, status *daemon.Status) {
	if !output.Running {
		fmt.Fprintln(w, "Daemon: not running")
		if status.Stale {
			fmt.Fprintf(w, "  (stale PID file found for PID %d)\n", status.PID)
			fmt.Fprintln(w, "  Run 'notesync daemon start' to start the daemon")
		}
		return
	}

	fmt.Fprintf(w, "Daemon: running (PID: %d)\n", output.PID)
	fmt.Fprintf(w, "Socket: %s\n", output.SocketPath)
	if output.Version != "" {
		fmt.Fprintf(w, "Version: %s\n", output.Version)
	}
	if output.Uptime != "" {
		fmt.Fprintf(w, "Uptime: %s\n", formatUptime(output.Uptime))
	}
	if output.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", output.Source)
		fmt.Fprintf(w, "Output: %s\n", output.Output)
	}

	if output.Watching {
		fmt.Fprintln(w, "Watching: yes")
	} else {
		fmt.Fprintln(w, "Watching: no")
	}
	if output.SyncCount > 0 {
		fmt.Fprintf(w, "Syncs: %d (last at %s)\n", output.SyncCount, output.LastSync)
	}
	if output.StaleDirs > 0 {
		fmt.Fprintf(w, "Stale directories: %d\n", output.StaleDirs)
	}

	if output.Error != "" {
		fmt.Fprintf(w, "Warning: %s\n", output.Error)
	}
}

// formatUptime shortens a Go duration string for display.
func formatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
