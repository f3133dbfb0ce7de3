package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/exchange"
	"github.com/chris-regnier/reflectctl/internal/journal"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the journal as JSON or markdown",
	Long: `Write every entry in plain text. The JSON format writes one array to --out
or stdout. The markdown format writes one file per entry with YAML frontmatter
into the --out directory.`,
	Example: `  reflectctl export > journal.json
  reflectctl export --format markdown --out ~/journal-md`,
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
		return exportRun(cmd.OutOrStdout(), entries, exportFormat, exportOut)
	},
}

func exportRun(w io.Writer, entries []entry.Entry, format, out string) error {
	switch format {
	case "json", "":
		if out == "" || out == "-" {
			return exchange.WriteJSON(w, entries)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := exchange.WriteJSON(f, entries); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(w, "Exported %d entries to %s\n", len(entries), out)
		return nil
	case "markdown", "md":
		if out == "" {
			return fmt.Errorf("--out directory is required for markdown export")
		}
		n, err := exchange.WriteMarkdown(out, entries)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Exported %d entries to %s\n", n, out)
		return nil
	default:
		return fmt.Errorf("unknown export format: %s (want json or markdown)", format)
	}
}

var importCmd = &cobra.Command{
	Use:   "import <dir | file.json>",
	Short: "Import entries from markdown files or a JSON export",
	Long: `Merge entries into the journal. A directory is read as markdown files with
frontmatter; a .json file is read as an export. Imported entries replace
existing entries with the same ID.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return importRun(cmd.Context(), cmd.OutOrStdout(), s.store, args[0])
	},
}

func importRun(ctx context.Context, w io.Writer, store *journal.Store, path string) error {
	imported, err := readImport(path)
	if err != nil {
		return err
	}
	existing, err := store.Entries()
	if err != nil {
		return err
	}
	if err := store.Persist(ctx, exchange.Merge(existing, imported)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d entries\n", len(imported))
	return nil
}

func readImport(path string) ([]entry.Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return exchange.ReadMarkdown(path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, fmt.Errorf("%s: want a directory or a .json file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return exchange.ReadJSON(f)
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format (json|markdown)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (json) or directory (markdown)")
	rootCmd.AddCommand(exportCmd, importCmd)
}
