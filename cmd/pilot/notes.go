package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
)

func newNotesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Export and search timestamped notes",
	}

	var format, videoURL string
	export := &cobra.Command{
		Use:   "export",
		Short: "Print notes as markdown, text or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.notes.Export(cmd.Context(), domain.ExportFormat(format), videoURL)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", string(domain.ExportMarkdown), "Export format: markdown, text or json")
	export.Flags().StringVar(&videoURL, "video-url", "", "Only export notes of this video")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Find notes whose text, video title or tags contain the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			found, err := a.notes.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(w, "No notes found.")
				return nil
			}
			for _, n := range found {
				title := n.VideoTitle
				if title == "" {
					title = n.VideoURL
				}
				fmt.Fprintf(w, "[%s] %s: %s\n", n.FormattedTime, title, service.NotePlainText(n))
			}
			return nil
		},
	}

	cmd.AddCommand(export, search)
	return cmd
}
