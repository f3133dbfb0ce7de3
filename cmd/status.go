package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/reflectctl/internal/config"
	"github.com/chris-regnier/reflectctl/internal/journal"
	"github.com/chris-regnier/reflectctl/internal/shell"
	"github.com/chris-regnier/reflectctl/internal/ui"
)

// statusData holds the template data for status formatting.
type statusData struct {
	TodayIcon  string
	Streak     int
	StreakIcon string
	WeekAvg    float64
	HasToday   bool
}

var (
	statusEnv    bool
	statusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show journal prompt status",
	Long: `Show journal status for shell prompt integration.

Outputs today indicator and streak count from the status cache, which is
refreshed whenever a command unlocks the journal. No passphrase is needed.

Use --env to output shell environment variable assignments.
Use --format with a Go template for custom output.`,
	Example: `  reflectctl status
  reflectctl status --env
  reflectctl status --format "{{.TodayIcon}} {{.Streak}}{{.StreakIcon}}"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := buildStatusData(appConfig.Shell, shell.ReadCache(appConfig.DataDir), now())
		w := cmd.OutOrStdout()
		switch {
		case statusEnv:
			return outputEnv(w, data)
		case statusFormat != "":
			return outputTemplate(w, data, statusFormat)
		default:
			return outputDefault(w, data, appConfig.Shell.ShowMood)
		}
	},
}

func buildStatusData(cfg config.ShellConfig, cache *shell.StatusCache, t time.Time) statusData {
	s := cache.At(t)
	icon := cfg.NoTodayIcon
	if s.Today {
		icon = cfg.TodayIcon
	}
	return statusData{
		TodayIcon:  icon,
		Streak:     s.Streak,
		StreakIcon: cfg.StreakIcon,
		WeekAvg:    s.WeekAvg,
		HasToday:   s.Today,
	}
}

func outputEnv(w io.Writer, data statusData) error {
	fmt.Fprintf(w, "export REFLECTCTL_TODAY=%q\n", data.TodayIcon)
	fmt.Fprintf(w, "export REFLECTCTL_STREAK=%q\n", fmt.Sprintf("%d", data.Streak))
	fmt.Fprintf(w, "export REFLECTCTL_STREAK_ICON=%q\n", data.StreakIcon)
	fmt.Fprintf(w, "export REFLECTCTL_WEEK_MOOD=%q\n", fmt.Sprintf("%+.2f", data.WeekAvg))
	return nil
}

func outputTemplate(w io.Writer, data statusData, format string) error {
	tmpl, err := template.New("status").Parse(format)
	if err != nil {
		return fmt.Errorf("invalid format template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing format template: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

func outputDefault(w io.Writer, data statusData, showMood bool) error {
	parts := []string{fmt.Sprintf("%s %d%s", data.TodayIcon, data.Streak, data.StreakIcon)}
	if showMood {
		parts = append(parts, fmt.Sprintf("%+.2f", data.WeekAvg))
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
	return nil
}

// refreshStatus rewrites the status cache from an unlocked journal. Failures
// never fail the command.
func refreshStatus(store *journal.Store) {
	if appConfig == nil || !appConfig.Shell.Cache {
		return
	}
	entries, err := store.Entries()
	if err != nil {
		return
	}
	if err := shell.WriteCache(appConfig.DataDir, shell.Compute(entries, now())); err != nil {
		logger.Debug("status cache not written")
	}
}

// tuiBackend refreshes the prompt status before the TUI locks the journal.
type tuiBackend struct {
	*ui.JournalBackend
}

func (b tuiBackend) Lock() {
	refreshStatus(b.Store)
	b.JournalBackend.Lock()
}

func init() {
	statusCmd.Flags().BoolVar(&statusEnv, "env", false, "output shell environment variable assignments")
	statusCmd.Flags().StringVar(&statusFormat, "format", "", "Go template format string")
	rootCmd.AddCommand(statusCmd)
}
