package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/journal"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every journal entry",
	Long:  `Delete the encrypted journal. There is no recovery.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if !resetYes {
			ok, err := ui.Confirm("Delete every entry? This cannot be undone.", ui.ResolveTheme(appConfig.Theme))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}
		return resetRun(cmd.Context(), cmd.OutOrStdout(), s.store)
	},
}

func resetRun(ctx context.Context, w io.Writer, store *journal.Store) error {
	if err := store.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "Journal deleted.")
	return nil
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation")
	rootCmd.AddCommand(resetCmd)
}
