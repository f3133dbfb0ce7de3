package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show or set your journaling goals",
}

var goalsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		goals, err := s.store.LoadGoals(cmd.Context())
		if err != nil {
			return err
		}
		return goalsShowRun(cmd.OutOrStdout(), goals)
	},
}

var goalsSetCmd = &cobra.Command{
	Use:     "set <goal, goal, ...>",
	Short:   "Replace the goals with a comma separated list",
	Example: `  reflectctl goals set "sleep better, move more"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		goals := entry.ParseGoals(strings.Join(args, " "))
		if err := s.store.SaveGoals(cmd.Context(), goals); err != nil {
			return err
		}
		return goalsShowRun(cmd.OutOrStdout(), goals)
	},
}

func goalsShowRun(w io.Writer, goals []string) error {
	if jsonOutput {
		return ui.FormatJSON(w, goals)
	}
	if len(goals) == 0 {
		fmt.Fprintln(w, "No goals set.")
		return nil
	}
	for _, g := range goals {
		fmt.Fprintln(w, "- "+g)
	}
	return nil
}

func init() {
	goalsCmd.AddCommand(goalsShowCmd, goalsSetCmd)
	rootCmd.AddCommand(goalsCmd)
}
