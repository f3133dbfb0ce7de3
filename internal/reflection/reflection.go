// Package reflection builds monthly reflections: local aggregation, the
// fallback reflections served when generation fails, strict parsing of model
// output and the generation prompts.
package reflection

import (
	"fmt"
	"strings"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
)

// Source records where a prompt or reflection came from.
type Source string

const (
	SourceOpenAI      Source = "openai"
	SourceMissingKey  Source = "fallback:missing_key"
	SourceOpenAIError Source = "fallback:openai_error"
	SourceParseError  Source = "fallback:parse_error"
	SourceException   Source = "fallback:exception"
	SourceNoEntries   Source = "fallback:no_entries"

	// SourceLocal marks results computed on this machine because the service
	// could not be reached.
	SourceLocal Source = "local"
)

// IsFallback reports whether s is anything other than a model response.
func (s Source) IsFallback() bool {
	return s == SourceLocal || strings.HasPrefix(string(s), "fallback:")
}

// MaxThemes caps the themes of a reflection.
const MaxThemes = 6

// InMonth keeps the entries dated in the calendar month of now.
func InMonth(entries []entry.Entry, now time.Time) []entry.Entry {
	out := []entry.Entry{}
	for _, e := range entries {
		t, err := time.Parse(entry.DateLayout, e.Date)
		if err != nil {
			continue
		}
		if t.Year() == now.Year() && t.Month() == now.Month() {
			out = append(out, e)
		}
	}
	return out
}

// MonthRange returns the first and last instant of the calendar month of now.
func MonthRange(now time.Time) (from, to time.Time) {
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to = from.AddDate(0, 1, 0).Add(-time.Millisecond)
	return from, to
}

// Aggregate computes the rounded mean sentiment and the top themes of entries.
// Non-finite sentiments count as 0; an empty list averages to 0.
func Aggregate(entries []entry.Entry) (avg float64, themes []entry.Theme) {
	themes = insights.CountThemes(entries, MaxThemes)
	if len(entries) == 0 {
		return 0, themes
	}
	sum := 0.0
	for _, e := range entries {
		sum += entry.Score(e)
	}
	return entry.Round2(sum / float64(len(entries))), themes
}

// NoEntries is served when the month has no entries.
func NoEntries() entry.MonthlyReflection {
	return entry.MonthlyReflection{
		Summary:     "No entries this month yet. A two-minute check-in can start a streak.",
		Avg:         0,
		Themes:      []entry.Theme{},
		Suggestions: []string{"Schedule a tiny daily ritual you can keep for 2 minutes.", "Write one sentence about how today felt."},
	}
}

// LocalSnapshot aggregates the month locally when the generator cannot be used.
func LocalSnapshot(entries []entry.Entry) entry.MonthlyReflection {
	avg, themes := Aggregate(entries)
	return entry.MonthlyReflection{
		Summary:     "Here's a light local summary based on this month's entries.",
		Avg:         avg,
		Themes:      themes,
		Suggestions: []string{"Note one thing that lifted your energy.", "Repeat a small habit from a good day."},
	}
}

// ParseFailure is served when the model output fails validation.
func ParseFailure(entries []entry.Entry) entry.MonthlyReflection {
	avg, themes := Aggregate(entries)
	return entry.MonthlyReflection{
		Summary:     "Couldn't parse AI response. Here's a simple local snapshot.",
		Avg:         avg,
		Themes:      themes,
		Suggestions: []string{"Capture one meaningful moment from today.", "Name one small win from this week."},
	}
}

// NetworkHiccup is served when the generator could not be reached.
func NetworkHiccup(entries []entry.Entry) entry.MonthlyReflection {
	avg, themes := Aggregate(entries)
	return entry.MonthlyReflection{
		Summary:     "We hit a network hiccup. Showing a basic local summary.",
		Avg:         avg,
		Themes:      themes,
		Suggestions: []string{"Try a 2-minute check-in tonight.", "Jot down one thing you are looking forward to."},
	}
}

// Fallback returns the reflection for a fallback source.
func Fallback(source Source, entries []entry.Entry) entry.MonthlyReflection {
	switch source {
	case SourceNoEntries:
		return NoEntries()
	case SourceParseError:
		return ParseFailure(entries)
	case SourceException:
		return NetworkHiccup(entries)
	default:
		return LocalSnapshot(entries)
	}
}

// maxPromptGoals is how many goals the fallback prompt mentions.
const maxPromptGoals = 3

// FallbackPrompt is the deterministic daily prompt used when generation fails.
func FallbackPrompt(goals []string, recent []entry.Entry) string {
	goalLine := ""
	if len(goals) > 0 {
		g := goals
		if len(g) > maxPromptGoals {
			g = g[:maxPromptGoals]
		}
		goalLine = " around " + strings.Join(g, ", ")
	}
	if n := len(recent); n > 0 && recent[n-1].Text != "" {
		return fmt.Sprintf("What felt most meaningful about that experience, and what small action could you repeat%s tomorrow?", goalLine)
	}
	return fmt.Sprintf("What's one small win today, and what made it possible%s?", goalLine)
}
