// Package cli implements the scrub command-line interface using Cobra.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/majorcontext/scrub/internal/log"
	"github.com/majorcontext/scrub/internal/ui"
)

var (
	verbose   bool
	jsonOut   bool
	debugFile string
)

var rootCmd = &cobra.Command{
	Use:   "scrub",
	Short: "Scrub - privacy redaction for recorded system traces",
	Long: `Scrub rewrites recorded system traces so they can be shared.
It drops kernel events that are not on a fixed safety allowlist, strips
unapproved packet fields, and removes the names of processes that do not
belong to the package under study. The output stays a valid trace; a
failed run never leaves a destination file behind.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := log.Init(log.Options{
			Verbose:     verbose,
			JSONFormat:  jsonOut,
			Interactive: ui.Interactive(),
			DebugFile:   debugFile,
		}); err != nil {
			cmd.PrintErrf("Warning: failed to initialize logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "use JSON log format")
	rootCmd.PersistentFlags().StringVar(&debugFile, "debug-log", "", "write a JSON debug log to this file")
}
