// Command pilot drives course videos from the terminal and manages the
// notes, summaries and stats kept in the local data directory.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	dataPath string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pilot",
		Short:         "pilot - course video automation and notes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.dataPath, "data-path", "", "Data directory (default: $DATA_PATH or ~/CoursePilot/data)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newWatchCmd(opts),
		newNotesCmd(opts),
		newStatsCmd(opts),
		newSyncCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
