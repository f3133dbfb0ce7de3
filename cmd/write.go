package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/analyzer"
	"github.com/chris-regnier/reflectctl/internal/editor"
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/journal"
	"github.com/chris-regnier/reflectctl/internal/template"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var (
	writeTags     []string
	writeEdit     bool
	writeTemplate string
)

var writeCmd = &cobra.Command{
	Use:   "write [text...]",
	Short: "Write today's journal entry",
	Long: `Write a journal entry dated today.

If text is provided as arguments, it is used directly.
If "-" is provided, text is read from stdin.
With --edit, --template or no text, your editor is opened. Templates
pre-fill the draft; see "reflectctl templates".`,
	Example: `  reflectctl write "Slept well, long walk after lunch"
  reflectctl write --tag grateful --tag calm Dinner with friends
  echo "piped text" | reflectctl write -
  reflectctl write --edit
  reflectctl write --template daily,gratitude`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		useEditor := false
		switch {
		case len(args) == 1 && args[0] == "-":
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		case len(args) > 0 && !writeEdit && writeTemplate == "":
			text = strings.Join(args, " ")
		default:
			useEditor = true
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if useEditor {
			initial, err := writeScaffold(cmd.Context(), s.store, writeTemplate)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				initial += strings.Join(args, " ")
			}
			content, changed, err := editor.Edit(editor.ResolveEditor(appConfig.Editor), initial)
			if err != nil {
				return err
			}
			if !changed {
				return fmt.Errorf("empty entry, nothing saved")
			}
			text = content
		}
		return writeRun(cmd.Context(), cmd.OutOrStdout(), s.store, newClient(), text, writeTags)
	},
}

// writeScaffold renders the named templates for today's draft.
func writeScaffold(ctx context.Context, store *journal.Store, names string) (string, error) {
	if names == "" {
		return "", nil
	}
	entries, err := store.Entries()
	if err != nil {
		return "", err
	}
	goals, err := store.LoadGoals(ctx)
	if err != nil {
		return "", err
	}
	return template.Compose(template.ParseNames(names), template.Vars{
		Date:   entry.Today(now()),
		Prompt: insights.LocalPrompt(insights.Latest(entries), goals),
		Goals:  goals,
	})
}

// indexer receives new entries for retrieval.
type indexer interface {
	IndexEntry(ctx context.Context, e entry.Entry) error
}

// writeRun analyzes text, appends it as today's entry and sends it to the index.
func writeRun(ctx context.Context, w io.Writer, store *journal.Store, ix indexer, text string, tags []string) error {
	text = strings.TrimSpace(text)
	if err := entry.ValidateText(text); err != nil {
		return err
	}
	e, err := store.Add(ctx, analyzer.AnalyzeEntry(entry.Today(now()), text, tags))
	if err != nil {
		return err
	}
	if ix != nil {
		if err := ix.IndexEntry(ctx, e); err != nil {
			logger.Debug("entry not indexed")
		}
	}

	if jsonOutput {
		return ui.FormatJSON(w, e)
	}
	ui.FormatEntryAdded(w, e)
	return nil
}

func init() {
	writeCmd.Flags().StringSliceVarP(&writeTags, "tag", "t", nil, "quick tag to attach (repeatable)")
	writeCmd.Flags().BoolVarP(&writeEdit, "edit", "e", false, "compose the entry in your editor")
	writeCmd.Flags().StringVarP(&writeTemplate, "template", "T", "", "comma separated scaffolds to start the draft from")
	rootCmd.AddCommand(writeCmd)
}
