package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/service"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the retrieval index",
}

var indexResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every entry from the configured index",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeIndex, err := newService(appConfig, nil)
		if err != nil {
			return err
		}
		defer closeIndex()
		return indexResetRun(cmd.Context(), cmd.OutOrStdout(), svc)
	},
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Send every journal entry to the service for indexing",
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
		return indexRebuildRun(cmd.Context(), cmd.OutOrStdout(), newClient(), entries)
	},
}

func indexResetRun(ctx context.Context, w io.Writer, svc *service.Service) error {
	if err := svc.ResetIndex(ctx); err != nil {
		if errors.Is(err, service.ErrNoIndex) {
			return errors.New("no index configured (index.backend is none)")
		}
		return fmt.Errorf("resetting index: %w", err)
	}
	fmt.Fprintln(w, "Index reset.")
	return nil
}

func indexRebuildRun(ctx context.Context, w io.Writer, ix indexer, entries []entry.Entry) error {
	for i, e := range entries {
		if err := ix.IndexEntry(ctx, e); err != nil {
			return fmt.Errorf("indexing entry %s (%d of %d): %w", e.ID, i+1, len(entries), err)
		}
	}
	fmt.Fprintf(w, "Indexed %d entries\n", len(entries))
	return nil
}

func init() {
	indexCmd.AddCommand(indexResetCmd, indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}
