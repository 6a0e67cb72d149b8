package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/watch"
)

// recordCacheSize bounds the state records kept in memory while watching.
const recordCacheSize = 4096

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source tree and re-sync on changes",
	Long: `Syncs once, then watches the source tree and re-syncs whenever files
change. Bursts of changes are coalesced by a debounce window.

Example output:

  $ notesync watch

  notesync: watching 1247 documents in 96 directories under /home/me/notes
  notesync: output /home/me/notes/_rendered (0 rendered on startup)
  notesync: ready

  [14:32:15] syncing after changes in journal...
  [14:32:15] ✓ journal/2024-05-01.md rendered

Press Ctrl+C to stop watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 0,
		"Debounce window in milliseconds (default from config)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Records are re-read on every sync; keep them in memory.
	store, err := incremental.NewCachedStore(incremental.NewFileStore(osfs.New("/")), recordCacheSize)
	if err != nil {
		return err
	}
	engine, matcher, err := newEngine(cfg, engineOptions{store: store})
	if err != nil {
		return err
	}

	debounce := cfg.Debounce()
	if watchFlags.debounce > 0 {
		debounce = time.Duration(watchFlags.debounce) * time.Millisecond
	}

	// Setup signal handling for graceful shutdown
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Source:   cfg.Sync.Source,
		Output:   cfg.Sync.Output,
		Ignore:   matcher,
		Debounce: debounce,
		Syncer:   engine,
		Log: watch.LoggerConfig{
			Writer:  cmd.OutOrStdout(),
			Verbose: watchFlags.verbose,
			NoColor: watchFlags.noColor,
			JSON:    watchFlags.json,
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
