package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.Local)

func TestLocalPromptRules(t *testing.T) {
	tests := []struct {
		name   string
		latest *entry.Entry
		goals  []string
		want   string
	}{
		{"empty", nil, nil, "What felt small but meaningful today?"},
		{"empty with goal", nil, []string{"sleep"}, "Quick check-in toward your goal: sleep. What small step did you take today?"},
		{"stress", &entry.Entry{Text: "So much STRESS"}, nil, "You mentioned stress recently. What helped you find even a hint of calm today?"},
		{"anxiety theme", &entry.Entry{Themes: []string{"anxiety"}}, nil, "You mentioned stress recently. What helped you find even a hint of calm today?"},
		{"heavy", &entry.Entry{Text: "meh", Sentiment: -0.5}, nil, "Yesterday seemed heavy. What is one thing within your control today?"},
		{"walk", &entry.Entry{Text: "a walk"}, nil, "How did moving your body affect your energy today?"},
		{"sleep", &entry.Entry{Themes: []string{"sleep"}}, nil, "How rested did you feel this morning? Did anything help your sleep?"},
		{"goal", &entry.Entry{Text: "ok"}, []string{"read more", "run"}, "Progress toward read more: what tiny win did you have today?"},
		{"default", &entry.Entry{Text: "ok"}, nil, "What gave you a spark of joy or relief today?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocalPrompt(tt.latest, tt.goals); got != tt.want {
				t.Errorf("LocalPrompt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeWeekEmpty(t *testing.T) {
	old := []entry.Entry{{Date: "2025-01-01", Text: "old", Sentiment: 1}}
	w := SummarizeWeek(old, now)
	if w.Count != 0 || !strings.HasPrefix(w.Summary, "No entries in the last week yet.") {
		t.Errorf("unexpected summary %+v", w)
	}
}

func TestSummarizeWeek(t *testing.T) {
	entries := []entry.Entry{
		{Date: "2025-03-10", Sentiment: 1, Themes: []string{"walk", "sleep"}},
		{Date: "2025-03-12", Sentiment: -0.5, Themes: []string{"sleep"}},
		{Date: "2025-03-14", Sentiment: 0.5, Themes: []string{"walk", "coffee"}},
	}
	w := SummarizeWeek(entries, now)
	want := "You wrote 3 times this week with an average mood score of 0.33. " +
		"Recurring themes: walk (2), sleep (2), coffee (1). " +
		"You tended to feel better on days with: walk, sleep, coffee."
	if w.Summary != want {
		t.Errorf("Summary =\n%q\nwant\n%q", w.Summary, want)
	}
	if len(w.Highlights) != 3 || w.Highlights[0] != "walk" {
		t.Errorf("Highlights = %v", w.Highlights)
	}
}

func TestSummarizeWeekSingular(t *testing.T) {
	w := SummarizeWeek([]entry.Entry{{Date: "2025-03-15", Sentiment: 0}}, now)
	if !strings.HasPrefix(w.Summary, "You wrote 1 time this week") {
		t.Errorf("Summary = %q", w.Summary)
	}
}

func TestTrendAndSparkline(t *testing.T) {
	points := Trend([]entry.Entry{
		{Date: "2025-03-01", Sentiment: -3},
		{Date: "2025-03-02", Sentiment: 0.126},
		{Date: "2025-03-03", Sentiment: 2},
	})
	if points[0].Date != "03-01" || points[1].Score != 0.13 {
		t.Errorf("Trend = %+v", points)
	}
	if got := Sparkline(points); got != "▁▅█" {
		t.Errorf("Sparkline = %q", got)
	}
	if Sparkline(nil) != "" {
		t.Error("empty trend must render empty")
	}
}

func TestStreak(t *testing.T) {
	entries := []entry.Entry{
		{Date: "2025-03-11"},
		{Date: "2025-03-13"},
		{Date: "2025-03-14"},
		{Date: "2025-03-15"},
		{Date: "2025-03-15"},
	}
	today, streak := Streak(entries, now)
	if !today || streak != 3 {
		t.Errorf("Streak = %v, %d; want true, 3", today, streak)
	}
	today, streak = Streak(entries[:3], now)
	if today || streak != 0 {
		t.Errorf("Streak = %v, %d; want false, 0", today, streak)
	}
}

func TestSeedDemoKeepsOlderEntries(t *testing.T) {
	existing := []entry.Entry{
		{Date: "2025-03-01", Text: "keep me"},
		{Date: "2025-03-12", Text: "replaced"},
	}
	got, err := SeedDemo(existing, now)
	if err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	if len(got) != 7 || got[0].Text != "keep me" {
		t.Fatalf("unexpected entries %+v", got)
	}
	if got[1].Date != "2025-03-09" || got[6].Date != "2025-03-14" {
		t.Errorf("demo dates = %s..%s", got[1].Date, got[6].Date)
	}
	for i := 2; i < len(got); i++ {
		if got[i].Date < got[i-1].Date {
			t.Fatalf("seeded list not chronological at %d", i)
		}
	}
	if got[3].Themes[0] != "sleep" {
		t.Errorf("themes = %v", got[3].Themes)
	}
}
