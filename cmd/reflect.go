package cmd

import (
	"bytes"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/client"
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var reflectRAG bool

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Reflect on this month",
	Long: `Generate a reflection on this month's entries: a summary, the average mood,
recurring themes and suggestions. Falls back to a local summary when the
service cannot be reached.`,
	Example: `  reflectctl reflect
  reflectctl reflect --rag --json`,
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
		goals, err := s.store.LoadGoals(cmd.Context())
		if err != nil {
			return err
		}
		return reflectRun(cmd.Context(), cmd.OutOrStdout(), newClient(), goals, entries, reflectRAG)
	},
}

func reflectRun(ctx context.Context, w io.Writer, c *client.Client, goals []string, entries []entry.Entry, rag bool) error {
	resp := c.ReflectionOrLocal(ctx, goals, entries, now(), rag)
	if jsonOutput {
		return ui.FormatJSON(w, resp)
	}
	theme := ui.ResolveTheme(appConfig.Theme)
	var buf bytes.Buffer
	ui.FormatReflection(&buf, resp, theme.MarkdownStyle)
	return ui.OutputOrPage(w, buf.String(), false, theme)
}

func init() {
	reflectCmd.Flags().BoolVar(&reflectRAG, "rag", false, "reflect over entries retrieved from the index")
	rootCmd.AddCommand(reflectCmd)
}
