package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/chris-regnier/reflectctl/internal/config"
	"github.com/chris-regnier/reflectctl/internal/editor"
	"github.com/chris-regnier/reflectctl/internal/logging"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

var (
	cfgFile        string
	jsonOutput     bool
	storageBackend string
	dataDirFlag    string
	appConfig      *config.Config
	logger         = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "reflectctl",
	Short: "A private, encrypted mood journal",
	Long: `reflectctl is an encrypted journal for the terminal. Entries are scored for
mood and tagged with themes locally; daily prompts and monthly reflections come
from the reflect service, with local fallbacks when it cannot be reached.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		appConfig = cfg

		if storageBackend != "" {
			appConfig.Storage = storageBackend
		}
		if dataDirFlag != "" {
			appConfig.DataDir = dataDirFlag
		}

		logger, err = logging.New(logging.Options{Level: cfg.Log.Level, Production: cfg.Log.Production})
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
			return cmd.Help()
		}
		kv, err := openStorage(cmd.Context(), appConfig)
		if err != nil {
			return err
		}
		defer kv.Close()

		return ui.RunTUI(tuiBackend{&ui.JournalBackend{
			Store:  newJournal(kv),
			Client: newClient(),
		}}, ui.TUIConfig{
			Editor:   editor.ResolveEditor(appConfig.Editor),
			MaxWidth: 100,
			Theme:    ui.ResolveTheme(appConfig.Theme),
		})
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	_ = logger.Sync()
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "storage backend (file|sqlite|redis|s3)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory for local backends")

	// Silence Cobra's built-in error and usage printing so we control stderr output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}
