package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Move summaries and notes between machines as package files",
	}

	var dir string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a sync package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			if dir == "" {
				dir = a.cfg.Sync.OutboxPath
			}
			path, err := a.sync.Export(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	export.Flags().StringVar(&dir, "dir", "", "Output directory (default: the sync outbox)")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a sync package into the local data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.sync.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d summaries and %d notes (exported %s)\n",
				res.SummariesImported, res.NotesImported, res.ExportedAt)
			return nil
		},
	}

	cmd.AddCommand(export, imp)
	return cmd
}
