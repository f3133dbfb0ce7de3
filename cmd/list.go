package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var (
	listMonth string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	Long:  "List journal entries with mood score, preview and themes, oldest first.",
	Example: `  reflectctl list
  reflectctl list --month 2025-01
  reflectctl list --limit 10 --json`,
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
		return listRun(cmd.OutOrStdout(), entries, listMonth, listLimit)
	},
}

// listRun prints entries of month (all when empty), keeping the last limit.
func listRun(w io.Writer, entries []entry.Entry, month string, limit int) error {
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return fmt.Errorf("invalid month %q (use YYYY-MM)", month)
		}
		filtered := []entry.Entry{}
		for _, e := range entries {
			if strings.HasPrefix(e.Date, month+"-") {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	if jsonOutput {
		return ui.FormatJSON(w, entries)
	}
	var buf bytes.Buffer
	ui.FormatEntryList(&buf, entries)
	return ui.OutputOrPage(w, buf.String(), false, ui.ResolveTheme(appConfig.Theme))
}

func init() {
	listCmd.Flags().StringVar(&listMonth, "month", "", "only entries of this month (YYYY-MM)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many of the latest entries")
	rootCmd.AddCommand(listCmd)
}
