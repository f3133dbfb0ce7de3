package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/client"
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/reflection"
	"github.com/chris-regnier/reflectctl/internal/service"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var (
	promptRAG   bool
	promptLocal bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Get today's writing prompt",
	Long: `Ask the reflect service for a writing prompt based on your goals and recent
entries. When the service cannot be reached a local prompt is shown instead.`,
	Example: `  reflectctl prompt
  reflectctl prompt --rag
  reflectctl prompt --local`,
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
		var c *client.Client
		if !promptLocal {
			c = newClient()
		}
		return promptRun(cmd.Context(), cmd.OutOrStdout(), c, goals, entries, promptRAG)
	},
}

// promptRun prints a prompt from c, or a local one when c is nil.
func promptRun(ctx context.Context, w io.Writer, c *client.Client, goals []string, entries []entry.Entry, rag bool) error {
	var resp service.PromptResponse
	if c == nil {
		resp = service.PromptResponse{
			Prompt: insights.LocalPrompt(insights.Latest(entries), goals),
			Source: reflection.SourceLocal,
		}
	} else {
		resp = c.PromptOrLocal(ctx, goals, entries, rag)
	}

	if jsonOutput {
		return ui.FormatJSON(w, resp)
	}
	ui.FormatPrompt(w, resp)
	return nil
}

func init() {
	promptCmd.Flags().BoolVar(&promptRAG, "rag", false, "ground the prompt in related past entries")
	promptCmd.Flags().BoolVar(&promptLocal, "local", false, "do not contact the service")
	rootCmd.AddCommand(promptCmd)
}
