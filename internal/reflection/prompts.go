package reflection

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

// Limits applied when building generation context.
const (
	RecentLimit       = 7
	recentTextRunes   = 180
	recentThemes      = 4
	MonthlyLimit      = 40
	monthlyTextRunes  = 350
	relatedTextRunes  = 240
	monthlyThemeLimit = 6
)

// Messages is a system/user instruction pair for the generator.
type Messages struct {
	System string
	User   string
}

const promptSystem = `You are Reflect, a private journaling companion.
You help users grow by asking one thoughtful, concise question each day.

Your behavior:
- Often, but not always, reference the user's past entries or themes so the question feels personal.
- Recognize patterns or changes over time, not just today's entry.
- Encourage self-reflection, not generic motivation.
- Never repeat exact questions, and do not keep returning to the same advice (for example sleep) in consecutive days.
- Never output advice, lists or prefaces. Output only one clear question.
- Keep the question under 200 characters.
- Be warm, curious and supportive, never clinical or judgmental.`

const reflectionSystem = `You are Reflect, a warm, non-judgmental journaling companion.
You generate a monthly reflection that feels personal and concise.
Respond ONLY as strict JSON with this shape:

{
  "summary": string,                            // 2-4 sentences referencing this month's patterns
  "avg": number,                                // average mood (-2..2), 2 decimals
  "themes": [{"label": string, "count": number}], // top recurring themes (max 6)
  "suggestions": [string]                       // 2-3 gentle, concrete next steps (short)
}`

func goalsLine(goals []string, prefix string) string {
	if len(goals) == 0 {
		return "No explicit goals provided."
	}
	return prefix + strings.Join(goals, ", ") + "."
}

// LastN returns the final n entries of list.
func LastN(list []entry.Entry, n int) []entry.Entry {
	if len(list) > n {
		return list[len(list)-n:]
	}
	return list
}

func historyLines(entries []entry.Entry, textRunes int) string {
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		themes := e.Themes
		if len(themes) > recentThemes {
			themes = themes[:recentThemes]
		}
		line := fmt.Sprintf("%d. %s: %s", i+1, e.Date, entry.Clip(e.Text, textRunes))
		if len(themes) > 0 {
			line += " (themes: " + strings.Join(themes, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// PromptMessages builds the daily prompt request. related holds semantically
// retrieved past entries and may be empty.
func PromptMessages(goals []string, recent, related []entry.Entry) Messages {
	history := historyLines(LastN(recent, RecentLimit), recentTextRunes)
	if history == "" {
		history = "No previous entries."
	}

	var b strings.Builder
	b.WriteString("Generate ONE journaling question for today that builds on this ongoing context.\n\n")
	b.WriteString(goalsLine(goals, "User's stated goals: "))
	// Retrieval requests carry no recent history of their own.
	if len(recent) > 0 || len(related) == 0 {
		b.WriteString("\n\nRecent journal history (most recent last):\n")
		b.WriteString(history)
	}
	if len(related) > 0 {
		b.WriteString("\n\nRelated past entries (most relevant first):\n")
		b.WriteString(historyLines(related, relatedTextRunes))
	}
	b.WriteString(`

Your question should:
- Show awareness of past patterns or themes.
- Invite reflection on progress, setbacks or recurring feelings.
- Avoid repeating wording from earlier questions.
- If the user shows reluctance to talk about prior issues, do not press the topic.

Return ONLY the question with no greeting, emoji or extra text.`)

	return Messages{System: promptSystem, User: b.String()}
}

type compactEntry struct {
	Date string   `json:"date"`
	Txt  string   `json:"txt"`
	S    float64  `json:"s"`
	T    []string `json:"t"`
}

// ReflectionMessages builds the monthly reflection request over month entries.
func ReflectionMessages(goals []string, month []entry.Entry) Messages {
	last := LastN(month, MonthlyLimit)
	compact := make([]compactEntry, 0, len(last))
	for _, e := range last {
		t := e.Themes
		if len(t) > monthlyThemeLimit {
			t = t[:monthlyThemeLimit]
		}
		if t == nil {
			t = []string{}
		}
		compact = append(compact, compactEntry{
			Date: e.Date,
			Txt:  entry.Clip(e.Text, monthlyTextRunes),
			S:    math.Round(entry.Score(e)*1000) / 1000,
			T:    t,
		})
	}
	data, _ := json.MarshalIndent(compact, "", "  ")

	user := "Create MonthlyReflection for the CURRENT CALENDAR MONTH only.\n\n" +
		goalsLine(goals, "User goals: ") +
		"\n\nEntries (ISO date, truncated text, numeric sentiment \"s\", themes \"t\"):\n" +
		string(data) + `

Rules:
- Derive "avg" from the provided sentiments (0 if missing) and round to 2 decimals.
- "summary" should reference noticeable changes or patterns (for example walks helped, sleep affected mood).
- "themes" must aggregate recurring tags from "t".
- Keep suggestions specific and doable (micro-actions).
- Output STRICT JSON only. No markdown, no commentary.`

	return Messages{System: reflectionSystem, User: user}
}

// RetrievalQuery is the text embedded to find entries related to the user's goals.
func RetrievalQuery(goals []string) string {
	if len(goals) == 0 {
		return "recent feelings, habits and moments that mattered"
	}
	return "progress, setbacks and feelings about " + strings.Join(goals, ", ")
}
