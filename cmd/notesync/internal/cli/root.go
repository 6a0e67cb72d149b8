// Package cli implements the notesync command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/internal/log"
	"github.com/albertocavalcante/notesync/pkg/config"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	configFile string
	source     string
	output     string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Incrementally render a tree of notes",
	Long: `Notesync mirrors a directory of documents into a rendered output tree.

Each directory gets an index page and each document is rendered to HTML.
A small state record kept in every output directory lets later runs skip
directories whose contents did not change, so re-syncing a large tree after
editing one note touches only the path from the root to that note.`,
	SilenceUsage: true,
	// Default behavior: show help
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notesync %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Config file (default: discovered from the source directory)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.source, "source", "",
		"Source directory holding the documents")
	rootCmd.PersistentFlags().StringVar(&globalFlags.output, "output", "",
		"Output directory for the rendered tree")

	// Hook to apply flags before command runs
	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	log.Init(globalFlags.verbosity, globalFlags.logFormat)
}

// loadConfig layers the global flags over the discovered configuration and
// returns a resolved, validated config.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	source, err := flagPath(globalFlags.source)
	if err != nil {
		return nil, err
	}
	output, err := flagPath(globalFlags.output)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	switch {
	case globalFlags.configFile != "":
		if cfg, err = config.LoadWithFile(globalFlags.configFile); err != nil {
			return nil, err
		}
	case source != "":
		cfg = config.LoadFrom(source)
	default:
		cfg = config.LoadFrom(wd)
	}

	if source != "" {
		cfg.Sync.Source = source
	}
	if output != "" {
		cfg.Sync.Output = output
	}
	if err := cfg.Resolve(wd); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log.Debug("configuration loaded",
		"source", cfg.Sync.Source,
		"output", cfg.Sync.Output,
		"renderer", cfg.Render.Renderer,
		"incremental", cfg.IsIncremental())
	return cfg, nil
}

// flagPath makes a path flag absolute relative to the working directory.
func flagPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(config.ExpandPath(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", p, err)
	}
	return abs, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
