package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/shell"
)

var initShellCmd = &cobra.Command{
	Use:   "init <shell>",
	Short: "Print the shell prompt integration",
	Long: `Print a script to eval from your shell rc file. It exports the journal status
as REFLECTCTL_* variables before every prompt, defines reflectctl_prompt_info
and loads completions.

Supported shells: bash, fish, zsh`,
	Example: `  eval "$(reflectctl init bash)"      # ~/.bashrc
  eval "$(reflectctl init zsh)"       # ~/.zshrc
  reflectctl init fish | source       # ~/.config/fish/config.fish`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: shell.Shells(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shell.WriteInit(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(initShellCmd)
}
