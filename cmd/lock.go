package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Explain how the journal is locked",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "The journal is locked. Each command unlocks it for its own run and wipes the passphrase on exit.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
