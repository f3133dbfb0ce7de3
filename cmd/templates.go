package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/template"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the writing templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return templatesRun(cmd.OutOrStdout())
	},
}

func templatesRun(w io.Writer) error {
	names := template.Names()
	if jsonOutput {
		return ui.FormatJSON(w, names)
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
