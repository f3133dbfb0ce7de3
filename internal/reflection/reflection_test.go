package reflection

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

func TestAggregateScenario(t *testing.T) {
	entries := []entry.Entry{
		{Date: "2025-01-01", Sentiment: -1, Themes: []string{"sleep"}},
		{Date: "2025-01-02", Sentiment: 1, Themes: []string{"sleep", "focus"}},
	}
	month := InMonth(entries, time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC))
	avg, themes := Aggregate(month)
	if avg != 0 {
		t.Errorf("avg = %v, want 0", avg)
	}
	want := []entry.Theme{{Label: "sleep", Count: 2}, {Label: "focus", Count: 1}}
	if !reflect.DeepEqual(themes, want) {
		t.Errorf("themes = %+v, want %+v", themes, want)
	}
}

func TestAggregateNonFiniteAndRounding(t *testing.T) {
	entries := []entry.Entry{
		{Sentiment: math.NaN()},
		{Sentiment: 0.5},
		{Sentiment: math.Inf(1)},
	}
	if avg, _ := Aggregate(entries); avg != 0.17 {
		t.Errorf("avg = %v, want 0.17", avg)
	}
	if avg, themes := Aggregate(nil); avg != 0 || len(themes) != 0 {
		t.Errorf("empty aggregate = %v, %v", avg, themes)
	}
}

func TestAggregateCapsThemes(t *testing.T) {
	var entries []entry.Entry
	for _, th := range []string{"a", "b", "c", "d", "e", "f", "g", "g"} {
		entries = append(entries, entry.Entry{Themes: []string{th}})
	}
	_, themes := Aggregate(entries)
	if len(themes) != MaxThemes || themes[0].Label != "g" || themes[0].Count != 2 {
		t.Errorf("themes = %+v", themes)
	}
}

func TestInMonth(t *testing.T) {
	entries := []entry.Entry{
		{Date: "2024-12-31"}, {Date: "2025-01-01"}, {Date: "2025-01-31"}, {Date: "2025-02-01"}, {Date: "garbage"},
	}
	got := InMonth(entries, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	if len(got) != 2 || got[0].Date != "2025-01-01" || got[1].Date != "2025-01-31" {
		t.Errorf("InMonth = %+v", got)
	}
	if got := InMonth(nil, time.Now()); got == nil || len(got) != 0 {
		t.Errorf("InMonth(nil) = %#v", got)
	}
}

func TestNoEntriesFallback(t *testing.T) {
	r := NoEntries()
	if !strings.Contains(r.Summary, "No entries this month") || r.Avg != 0 || len(r.Themes) != 0 || r.Themes == nil {
		t.Errorf("unexpected reflection %+v", r)
	}
	if len(r.Suggestions) < minSuggestions {
		t.Errorf("fallback carries %d suggestions", len(r.Suggestions))
	}
}

func TestFallbacksAggregateLocally(t *testing.T) {
	entries := []entry.Entry{{Sentiment: 1, Themes: []string{"walk"}}, {Sentiment: 0.5, Themes: []string{"walk"}}}
	for _, src := range []Source{SourceMissingKey, SourceOpenAIError, SourceParseError, SourceException} {
		r := Fallback(src, entries)
		if r.Avg != 0.75 || len(r.Themes) != 1 || r.Summary == "" || len(r.Suggestions) < minSuggestions {
			t.Errorf("%s: unexpected reflection %+v", src, r)
		}
		if !src.IsFallback() {
			t.Errorf("%s should be a fallback source", src)
		}
	}
	if SourceOpenAI.IsFallback() {
		t.Error("openai is not a fallback source")
	}
}

func TestFallbackPrompt(t *testing.T) {
	if got := FallbackPrompt(nil, nil); got != "What's one small win today, and what made it possible?" {
		t.Errorf("FallbackPrompt = %q", got)
	}
	goals := []string{"sleep", "move", "read", "cook"}
	got := FallbackPrompt(goals, []entry.Entry{{Text: "a day"}})
	want := "What felt most meaningful about that experience, and what small action could you repeat around sleep, move, read tomorrow?"
	if got != want {
		t.Errorf("FallbackPrompt = %q, want %q", got, want)
	}
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(time.Date(2025, 2, 10, 15, 0, 0, 0, time.UTC))
	if from != time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("from = %v", from)
	}
	if to.Month() != time.February || to.Day() != 28 || !to.Before(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", to)
	}
}

func TestParseReflection(t *testing.T) {
	raw := "Sure! Here it is:\n" +
		`{"summary":" Walks helped. ","avg":0.456,"themes":[{"label":"walk","count":3}],"suggestions":["Walk after lunch.","Call a friend."]}` +
		"\nEnjoy."
	r, err := ParseReflection(raw)
	if err != nil {
		t.Fatalf("ParseReflection: %v", err)
	}
	if r.Summary != "Walks helped." || r.Avg != 0.46 || r.Themes[0].Label != "walk" || r.Suggestions[0] != "Walk after lunch." {
		t.Errorf("unexpected reflection %+v", r)
	}
}

func TestParseReflectionRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "I could not do that.",
		"truncated":      `{"summary":"x","avg":1`,
		"unknown field":  `{"summary":"x","avg":1,"themes":[],"suggestions":["a","b"],"mood":"ok"}`,
		"empty summary":  `{"summary":"  ","avg":1,"themes":[],"suggestions":["a","b"]}`,
		"missing avg":    `{"summary":"x","themes":[],"suggestions":["a","b"]}`,
		"string avg":     `{"summary":"x","avg":"1","themes":[],"suggestions":["a","b"]}`,
		"missing themes": `{"summary":"x","avg":1,"suggestions":["a","b"]}`,
		"zero count":     `{"summary":"x","avg":1,"themes":[{"label":"a","count":0}],"suggestions":["a","b"]}`,
		"no suggestions": `{"summary":"x","avg":1,"themes":[],"suggestions":[]}`,
		"one":            `{"summary":"ok month","avg":0.5,"themes":[],"suggestions":["one"]}`,
		"too many":       `{"summary":"x","avg":1,"themes":[],"suggestions":["a","b","c","d"]}`,
		"blank":          `{"summary":"x","avg":1,"themes":[],"suggestions":["a"," "]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseReflection(raw); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestParseReflectionTruncatesThemes(t *testing.T) {
	raw := `{"summary":"x","avg":0,"themes":[` +
		`{"label":"a","count":1},{"label":"b","count":1},{"label":"c","count":1},{"label":"d","count":1},` +
		`{"label":"e","count":1},{"label":"f","count":1},{"label":"g","count":1}],"suggestions":["s","t"]}`
	r, err := ParseReflection(raw)
	if err != nil {
		t.Fatalf("ParseReflection: %v", err)
	}
	if len(r.Themes) != MaxThemes {
		t.Errorf("themes = %d, want %d", len(r.Themes), MaxThemes)
	}
}

func TestSchemaIsStrict(t *testing.T) {
	s := Schema()
	if s["type"] != "object" || s["additionalProperties"] != false {
		t.Fatalf("schema = %v", s)
	}
	required, _ := s["required"].([]string)
	want := []string{"avg", "suggestions", "summary", "themes"}
	if !reflect.DeepEqual(required, want) {
		t.Errorf("required = %v, want %v", required, want)
	}
	props := s["properties"].(map[string]interface{})
	items := props["themes"].(map[string]interface{})["items"].(map[string]interface{})
	if items["additionalProperties"] != false {
		t.Errorf("theme items not closed: %v", items)
	}
}

func TestPromptMessages(t *testing.T) {
	var recent []entry.Entry
	for i := 0; i < 9; i++ {
		recent = append(recent, entry.Entry{Date: "2025-01-0" + string(rune('1'+i)), Text: strings.Repeat("x", 300), Themes: []string{"a", "b", "c", "d", "e"}})
	}
	m := PromptMessages([]string{"sleep"}, recent, nil)
	if !strings.Contains(m.User, "User's stated goals: sleep.") {
		t.Errorf("missing goals line:\n%s", m.User)
	}
	if strings.Contains(m.User, "2025-01-01") || !strings.Contains(m.User, "7. ") || strings.Contains(m.User, "8. ") {
		t.Errorf("history not limited to seven entries:\n%s", m.User)
	}
	if strings.Contains(m.User, strings.Repeat("x", 181)) || strings.Contains(m.User, ", e)") {
		t.Errorf("history not truncated:\n%s", m.User)
	}
	if strings.Contains(m.User, "Related past entries") {
		t.Error("unexpected related section")
	}

	empty := PromptMessages(nil, nil, nil)
	if !strings.Contains(empty.User, "No explicit goals provided.") || !strings.Contains(empty.User, "No previous entries.") {
		t.Errorf("unexpected empty prompt:\n%s", empty.User)
	}

	rag := PromptMessages(nil, nil, []entry.Entry{{Date: "2024-12-01", Text: "old walk"}})
	if !strings.Contains(rag.User, "Related past entries") || !strings.Contains(rag.User, "old walk") {
		t.Errorf("related entries missing:\n%s", rag.User)
	}
	if strings.Contains(rag.User, "Recent journal history") {
		t.Errorf("retrieval prompt should not carry an empty history:\n%s", rag.User)
	}
}

func TestReflectionMessagesCompact(t *testing.T) {
	m := ReflectionMessages(nil, []entry.Entry{{Date: "2025-01-01", Text: "hello", Sentiment: 0.12345}})
	if !strings.Contains(m.User, `"s": 0.123`) || !strings.Contains(m.User, `"t": []`) || !strings.Contains(m.User, `"txt": "hello"`) {
		t.Errorf("unexpected compact entries:\n%s", m.User)
	}
}
