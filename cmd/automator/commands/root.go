package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose      bool
	jsonOutput   bool
	artifactsDir string
	allowedDirs  []string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "automator",
		Short: "Declarative desktop automation engine",
		Long: `Automator executes declarative YAML recipes against desktop applications.

A recipe is an ordered list of steps: launch an application, wait for its
window, click and type into UI elements, verify state, read text back,
operate on files, and capture the screen. Each step carries its own retry
and timeout budget; failures produce a diagnostic screenshot.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "log in JSON format")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts-dir", "artifacts", "directory for screenshots and failure diagnostics")
	rootCmd.PersistentFlags().StringSliceVar(&allowedDirs, "allow-dir", nil, "directory recipes may read and write under (repeatable; empty allows any)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newListProvidersCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("automator %s\ncommit: %s\nbuilt:  %s\n", version, commit, buildDate)
		},
	}
}
