package insights

import (
	"fmt"
	"time"

	"github.com/chris-regnier/reflectctl/internal/analyzer"
	"github.com/chris-regnier/reflectctl/internal/entry"
)

type sample struct {
	daysAgo int
	text    string
	tags    []string
}

var demo = []sample{
	{6, "Felt stressed about work deadlines. Short walk helped a little.", []string{"stressed", "walk"}},
	{5, "Morning walk and coffee boosted energy. Focused block gave me momentum.", []string{"energized", "focus"}},
	{4, "Poor sleep last night. Felt anxious in the afternoon.", []string{"sleep", "anxious"}},
	{3, "Worked out at the gym. Creativity flowed on my side project.", []string{"exercise", "creative"}},
	{2, "Family dinner was grounding and warm.", []string{"family", "grateful"}},
	{1, "Deep work session, minimal distractions.", []string{"focus"}},
}

// SeedDemo returns existing entries dated before the first demo day followed by
// six analysed demo entries covering the previous six days.
func SeedDemo(existing []entry.Entry, now time.Time) ([]entry.Entry, error) {
	seeded := make([]entry.Entry, 0, len(demo))
	for _, s := range demo {
		e := analyzer.AnalyzeEntry(entry.Today(now.AddDate(0, 0, -s.daysAgo)), s.text, s.tags)
		id, err := entry.NewID()
		if err != nil {
			return nil, fmt.Errorf("generating ID: %w", err)
		}
		e.ID = id
		seeded = append(seeded, e)
	}

	first := seeded[0].Date
	out := []entry.Entry{}
	for _, e := range existing {
		if e.Date < first {
			out = append(out, e)
		}
	}
	return append(out, seeded...), nil
}
