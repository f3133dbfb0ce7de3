package entry

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8

	// DateLayout is the calendar date format used for entry dates.
	DateLayout = "2006-01-02"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]{8}$`)

// ErrOutOfOrder is returned when an entry would be appended before the last one.
var ErrOutOfOrder = errors.New("entry dated before the last entry")

// Entry represents a single journal entry.
type Entry struct {
	ID        string   `json:"id,omitempty"`
	Date      string   `json:"date"`
	Text      string   `json:"text"`
	Sentiment float64  `json:"sentiment"`
	Themes    []string `json:"themes"`
}

// Theme is a label with the number of entries it appeared in.
type Theme struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthlyReflection is a generated summary of the current calendar month.
// It is never persisted.
type MonthlyReflection struct {
	Summary     string   `json:"summary"`
	Avg         float64  `json:"avg"`
	Themes      []Theme  `json:"themes"`
	Suggestions []string `json:"suggestions"`
}

// NewID generates a new nanoid for an entry.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// ValidateID checks whether an ID matches the expected pattern.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid entry ID: %q (must be 8 lowercase alphanumeric characters)", id)
	}
	return nil
}

// ValidateText checks whether entry text is non-empty.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("entry text must not be empty")
	}
	return nil
}

// ValidateDate checks that date is a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid entry date %q: want YYYY-MM-DD", date)
	}
	return nil
}

// Today returns the calendar date for t in the entry date format.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// Time parses the entry date as local midnight. Unparseable dates yield the zero time.
func (e Entry) Time() time.Time {
	t, err := time.ParseInLocation(DateLayout, e.Date, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Score returns the entry sentiment, treating non-finite values as 0.
func Score(e Entry) float64 {
	if math.IsNaN(e.Sentiment) || math.IsInf(e.Sentiment, 0) {
		return 0
	}
	return e.Sentiment
}

// Round2 rounds to two decimals; non-finite input yields 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// MergeThemes unions theme lists, keeping first-seen order and dropping blanks and duplicates.
func MergeThemes(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range lists {
		for _, t := range l {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Append adds e to the end of entries. An entry dated before the current last
// entry is rejected so index order stays chronological.
func Append(entries []Entry, e Entry) ([]Entry, error) {
	if n := len(entries); n > 0 && e.Date < entries[n-1].Date {
		return entries, fmt.Errorf("%w: %s < %s", ErrOutOfOrder, e.Date, entries[n-1].Date)
	}
	out := make([]Entry, len(entries), len(entries)+1)
	copy(out, entries)
	return append(out, e), nil
}

// Clone returns a deep copy of entries.
func Clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Themes = append([]string(nil), e.Themes...)
		out[i] = e
	}
	return out
}

// ParseGoals splits a comma separated goal list, trimming and dropping blanks.
func ParseGoals(s string) []string {
	goals := []string{}
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	return goals
}

// Preview returns a truncated single-line preview of the entry text.
func (e *Entry) Preview(maxLen int) string {
	return Truncate(strings.ReplaceAll(e.Text, "\n", " "), maxLen)
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// Clip shortens s to at most n runes without a marker.
func Clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
