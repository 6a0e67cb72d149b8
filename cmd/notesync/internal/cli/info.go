package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/formats"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/registry"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/render"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what this build of notesync supports",
}

var syntaxThemesCmd = &cobra.Command{
	Use:   "syntax-themes",
	Short: "List the code block highlighting themes",
	Long: `Lists the themes accepted by code_theme in the [render] section and by
the --code-theme flag of the render command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printLines(cmd, render.CodeThemes())
	},
}

var renderersCmd = &cobra.Command{
	Use:   "renderers",
	Short: "List the registered document renderers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printLines(cmd, registry.AvailableRenderers())
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the known document formats and their extensions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range formats.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", name, formats.Extensions[name])
		}
	},
}

func init() {
	infoCmd.AddCommand(syntaxThemesCmd, renderersCmd, formatsCmd)
	rootCmd.AddCommand(infoCmd)
}

func printLines(cmd *cobra.Command, lines []string) {
	out := cmd.OutOrStdout()
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
}
