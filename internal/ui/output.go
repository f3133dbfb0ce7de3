package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/service"
)

// FormatEntryAdded formats a confirmation for a saved entry.
func FormatEntryAdded(w io.Writer, e entry.Entry) {
	fmt.Fprintf(w, "Saved entry %s (%s, mood %+.2f)\n", e.ID, e.Date, entry.Score(e))
	if len(e.Themes) > 0 {
		fmt.Fprintf(w, "Themes: %s\n", strings.Join(e.Themes, ", "))
	}
}

// FormatEntryList formats entries one per line, oldest first.
func FormatEntryList(w io.Writer, entries []entry.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No journal entries found.")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s  %+.2f  %s", e.Date, e.ID, entry.Score(e), e.Preview(60))
		if len(e.Themes) > 0 {
			line += "  [" + strings.Join(e.Themes, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
}

// FormatPrompt formats a daily prompt with its source.
func FormatPrompt(w io.Writer, p service.PromptResponse) {
	fmt.Fprintln(w, p.Prompt)
	fmt.Fprintf(w, "(source: %s", p.Source)
	if p.Retrieved != nil {
		fmt.Fprintf(w, ", %d related entries", *p.Retrieved)
	}
	fmt.Fprintln(w, ")")
}

// FormatWeekly formats the weekly summary with the writing streak.
func FormatWeekly(w io.Writer, wk insights.Weekly, todayExists bool, streak int) {
	fmt.Fprintln(w, wk.Summary)
	switch {
	case !todayExists:
		fmt.Fprintln(w, "No entry today yet.")
	case streak == 1:
		fmt.Fprintln(w, "Streak: 1 day")
	default:
		fmt.Fprintf(w, "Streak: %d days\n", streak)
	}
}

// FormatTrend formats the mood trend as a sparkline with its date range.
func FormatTrend(w io.Writer, points []insights.Point) {
	if len(points) == 0 {
		fmt.Fprintln(w, "No mood data yet.")
		return
	}
	fmt.Fprintf(w, "%s  %s\n", points[0].Date, points[len(points)-1].Date)
	fmt.Fprintln(w, insights.Sparkline(points))
}

// ReflectionMarkdown renders a monthly reflection as markdown.
func ReflectionMarkdown(r entry.MonthlyReflection) string {
	var b strings.Builder
	b.WriteString("# This month\n\n")
	b.WriteString(r.Summary)
	fmt.Fprintf(&b, "\n\n**Average mood:** %.2f\n", r.Avg)
	if len(r.Themes) > 0 {
		b.WriteString("\n## Themes\n\n")
		for _, t := range r.Themes {
			fmt.Fprintf(&b, "- %s (%d)\n", t.Label, t.Count)
		}
	}
	if len(r.Suggestions) > 0 {
		b.WriteString("\n## Suggestions\n\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

// FormatReflection formats a monthly reflection rendered for the terminal.
func FormatReflection(w io.Writer, resp service.ReflectionResponse, markdownStyle string) {
	fmt.Fprintln(w, RenderMarkdownWithStyle(ReflectionMarkdown(resp.Reflection), 80, markdownStyle))
	fmt.Fprintf(w, "\n(source: %s)\n", resp.Source)
}

// FormatHealth formats the service health.
func FormatHealth(w io.Writer, h service.Health) {
	fmt.Fprintf(w, "ok: %v\n", h.OK)
	if h.Model != "" {
		fmt.Fprintf(w, "model: %s\n", h.Model)
	}
	fmt.Fprintf(w, "key set: %v\n", h.KeySet)
	if h.Chroma != nil {
		fmt.Fprintf(w, "index reachable: %v\n", *h.Chroma)
	}
}

// FormatJSON writes any value as JSON to the writer.
func FormatJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
