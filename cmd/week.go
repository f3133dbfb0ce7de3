package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show this week's summary and mood trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.store.Entries()
		if err != nil {
			return err
		}
		return weekRun(cmd.OutOrStdout(), entries)
	},
}

func weekRun(w io.Writer, entries []entry.Entry) error {
	t := now()
	week := insights.SummarizeWeek(entries, t)
	today, streak := insights.Streak(entries, t)
	if jsonOutput {
		return ui.FormatJSON(w, struct {
			insights.Weekly
			Streak     int              `json:"streak"`
			WroteToday bool             `json:"wroteToday"`
			Trend      []insights.Point `json:"trend"`
		}{week, streak, today, insights.Trend(entries)})
	}
	ui.FormatWeekly(w, week, today, streak)
	fmt.Fprintln(w)
	ui.FormatTrend(w, insights.Trend(entries))
	return nil
}

func init() {
	rootCmd.AddCommand(weekCmd)
}
