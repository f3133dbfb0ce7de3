package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/journal"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add six days of demo entries",
	Long: `Replace the last six days with demo entries so the trend, insights and
reflection views have something to show. Entries dated before the first demo
day are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return seedRun(cmd.Context(), cmd.OutOrStdout(), s.store, newClient())
	},
}

func seedRun(ctx context.Context, w io.Writer, store *journal.Store, ix indexer) error {
	existing, err := store.Entries()
	if err != nil {
		return err
	}
	seeded, err := insights.SeedDemo(existing, now())
	if err != nil {
		return err
	}
	if err := store.Persist(ctx, seeded); err != nil {
		return err
	}

	added := seeded[len(seeded)-6:]
	if ix != nil {
		for _, e := range added {
			if err := ix.IndexEntry(ctx, e); err != nil {
				logger.Debug("demo entry not indexed")
				break
			}
		}
	}
	fmt.Fprintf(w, "Added %d demo entries\n", len(added))
	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
