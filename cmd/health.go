package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/client"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the reflect service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return healthRun(cmd.Context(), cmd.OutOrStdout(), newClient())
	},
}

func healthRun(ctx context.Context, w io.Writer, c *client.Client) error {
	h, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return ui.FormatJSON(w, h)
	}
	ui.FormatHealth(w, h)
	return nil
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
