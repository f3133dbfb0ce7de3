// Package insights derives the offline views of a journal: the local daily
// prompt, the weekly summary, the mood trend and the writing streak.
package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

const (
	weekWindow  = 7 * 24 * time.Hour
	topThemes   = 5
	topSignals  = 3
	goodDay     = 0.5
	heavyDay    = -0.5
	emptyWeek   = "No entries in the last week yet. A little goes a long way. Try a short check-in today!"
	emptyPrompt = "What felt small but meaningful today?"
)

// LocalPrompt picks a deterministic writing prompt from the latest entry and goals.
func LocalPrompt(latest *entry.Entry, goals []string) string {
	goal := ""
	if len(goals) > 0 {
		goal = goals[0]
	}
	if latest == nil {
		if goal != "" {
			return fmt.Sprintf("Quick check-in toward your goal: %s. What small step did you take today?", goal)
		}
		return emptyPrompt
	}

	lower := strings.ToLower(latest.Text)
	has := func(theme string) bool {
		for _, t := range latest.Themes {
			if t == theme {
				return true
			}
		}
		return false
	}

	switch {
	case strings.Contains(lower, "stress") || has("anxiety"):
		return "You mentioned stress recently. What helped you find even a hint of calm today?"
	case entry.Score(*latest) <= heavyDay:
		return "Yesterday seemed heavy. What is one thing within your control today?"
	case has("exercise") || strings.Contains(lower, "walk"):
		return "How did moving your body affect your energy today?"
	case has("sleep"):
		return "How rested did you feel this morning? Did anything help your sleep?"
	case goal != "":
		return fmt.Sprintf("Progress toward %s: what tiny win did you have today?", goal)
	default:
		return "What gave you a spark of joy or relief today?"
	}
}

// Latest returns the most recent entry, or nil for an empty list.
func Latest(entries []entry.Entry) *entry.Entry {
	if len(entries) == 0 {
		return nil
	}
	e := entries[len(entries)-1]
	return &e
}

// Weekly is the summary of the trailing seven days.
type Weekly struct {
	Count      int
	Avg        float64
	Summary    string
	Highlights []string
}

// SummarizeWeek summarizes entries written within seven days of now.
func SummarizeWeek(entries []entry.Entry, now time.Time) Weekly {
	var week []entry.Entry
	for _, e := range entries {
		t := e.Time()
		if t.IsZero() {
			continue
		}
		if now.Sub(t) <= weekWindow {
			week = append(week, e)
		}
	}
	if len(week) == 0 {
		return Weekly{Summary: emptyWeek, Highlights: []string{}}
	}

	sum := 0.0
	var positive []entry.Entry
	for _, e := range week {
		s := entry.Score(e)
		sum += s
		if s >= goodDay {
			positive = append(positive, e)
		}
	}
	avg := sum / float64(len(week))
	themes := CountThemes(week, topThemes)
	signals := CountThemes(positive, topSignals)

	plural := ""
	if len(week) > 1 {
		plural = "s"
	}
	parts := []string{fmt.Sprintf("You wrote %d time%s this week with an average mood score of %.2f.", len(week), plural, avg)}
	if len(themes) > 0 {
		labels := make([]string, len(themes))
		for i, t := range themes {
			labels[i] = fmt.Sprintf("%s (%d)", t.Label, t.Count)
		}
		parts = append(parts, "Recurring themes: "+strings.Join(labels, ", ")+".")
	}
	if len(signals) > 0 {
		labels := make([]string, len(signals))
		for i, t := range signals {
			labels[i] = t.Label
		}
		parts = append(parts, "You tended to feel better on days with: "+strings.Join(labels, ", ")+".")
	}

	highlights := make([]string, len(themes))
	for i, t := range themes {
		highlights[i] = t.Label
	}
	return Weekly{Count: len(week), Avg: avg, Summary: strings.Join(parts, " "), Highlights: highlights}
}

// CountThemes counts the entries each theme appears in, sorted by count
// descending with ties in first-seen order. limit <= 0 keeps every theme.
func CountThemes(entries []entry.Entry, limit int) []entry.Theme {
	index := map[string]int{}
	out := []entry.Theme{}
	for _, e := range entries {
		for _, t := range entry.MergeThemes(e.Themes) {
			if i, ok := index[t]; ok {
				out[i].Count++
				continue
			}
			index[t] = len(out)
			out = append(out, entry.Theme{Label: t, Count: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Point is one sample of the mood trend.
type Point struct {
	Date  string
	Score float64
}

// Trend maps entries to chart points in list order, dates shortened to MM-DD.
func Trend(entries []entry.Entry) []Point {
	points := make([]Point, 0, len(entries))
	for _, e := range entries {
		d := e.Date
		if len(d) == len(entry.DateLayout) {
			d = d[5:]
		}
		points = append(points, Point{Date: d, Score: entry.Round2(entry.Score(e))})
	}
	return points
}

var bars = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders points as a bar string over the fixed domain [-2, 2].
func Sparkline(points []Point) string {
	var b strings.Builder
	for _, p := range points {
		v := p.Score
		if v < -2 {
			v = -2
		}
		if v > 2 {
			v = 2
		}
		i := int((v+2)/4*float64(len(bars)-1) + 0.5)
		b.WriteRune(bars[i])
	}
	return b.String()
}

// Streak computes whether today has an entry and the number of consecutive
// days with an entry, counting backwards from today.
func Streak(entries []entry.Entry, now time.Time) (todayExists bool, streak int) {
	daySet := make(map[string]bool, len(entries))
	for _, e := range entries {
		daySet[e.Date] = true
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayExists = daySet[entry.Today(today)]

	check := today
	for daySet[entry.Today(check)] {
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return todayExists, streak
}
