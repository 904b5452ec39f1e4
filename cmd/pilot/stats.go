package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/internal/domain"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show viewing statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.stats.Get(cmd.Context())
			if err != nil {
				return err
			}
			insights, err := a.stats.Insights(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"stats": stats.View(), "insights": insights})
			}
			printStats(w, stats.View(), insights)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func printStats(w io.Writer, v domain.StatsView, in domain.Insights) {
	fmt.Fprintf(w, "Videos watched: %d\n", v.VideosWatched)
	fmt.Fprintf(w, "Time watched:   %s\n", domain.FormatTime(v.TotalTimeSeconds))
	fmt.Fprintf(w, "Average speed:  %.2fx\n", v.AverageSpeed)
	fmt.Fprintf(w, "Time saved:     %s\n", domain.FormatTime(v.TimeSavedSeconds))
	fmt.Fprintf(w, "Current streak: %d days (longest %d)\n", in.CurrentStreak, in.LongestStreak)
	for i, rec := range v.Videos {
		if i == 5 {
			break
		}
		fmt.Fprintf(w, "  %s  %s (%s, %.2fx)\n", rec.CompletedAt.Format("2006-01-02"), rec.Title, rec.Platform, rec.Speed)
	}
}
