// Package analyzer scores journal text with a fixed word lexicon and tags it
// with themes from a fixed vocabulary. Everything here is pure and total.
package analyzer

import (
	"bufio"
	_ "embed"
	"strconv"
	"strings"
	"sync"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

//go:embed afinn.txt
var afinnData string

// DefaultThemes is the primary theme vocabulary.
var DefaultThemes = []string{
	"work", "family", "friends", "health", "sleep", "exercise", "gratitude", "focus", "anxiety", "energy", "creativity",
}

// ActivityThemes is the auxiliary activity vocabulary.
var ActivityThemes = []string{
	"walk", "run", "gym", "yoga", "meditation", "coffee", "sunlight", "music", "deep work",
}

// QuickTags are one-tap tags offered when writing an entry.
var QuickTags = []string{
	"grateful", "stressed", "calm", "anxious", "tired", "energized", "social", "focused", "distracted", "creative", "overwhelmed",
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true, "doesn't": true,
	"didn't": true, "isn't": true, "wasn't": true, "aren't": true, "can't": true, "cannot": true,
	"won't": true, "wouldn't": true, "shouldn't": true, "couldn't": true, "haven't": true,
}

var (
	lexiconOnce sync.Once
	lexicon     map[string]int
)

func words() map[string]int {
	lexiconOnce.Do(func() {
		lexicon = make(map[string]int)
		sc := bufio.NewScanner(strings.NewReader(afinnData))
		for sc.Scan() {
			word, score, ok := strings.Cut(sc.Text(), "\t")
			if !ok {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(score))
			if err != nil {
				continue
			}
			lexicon[strings.TrimSpace(word)] = n
		}
	})
	return lexicon
}

var punctuation = strings.NewReplacer(
	".", " ", ",", " ", "/", " ", "#", " ", "!", " ", "?", " ", "$", " ", "%", " ", "^", " ",
	"&", " ", "*", " ", ";", " ", ":", " ", "{", " ", "}", " ", "=", " ", "_", " ", "`", " ",
	"\"", " ", "~", " ", "(", " ", ")", " ",
)

// Tokenize lowercases text, replaces punctuation with spaces and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(punctuation.Replace(strings.ToLower(text)))
}

// Analyze returns the comparative sentiment of text: the sum of matched word
// polarities divided by the number of tokens. A word directly after a negator
// counts with flipped polarity. Text without tokens scores 0.
func Analyze(text string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	lex := words()
	score := 0
	for i, tok := range tokens {
		p, ok := lex[tok]
		if !ok {
			continue
		}
		if i > 0 && negators[tokens[i-1]] {
			p = -p
		}
		score += p
	}
	return float64(score) / float64(len(tokens))
}

// ExtractThemes returns the vocabulary terms contained in text, case-insensitively.
// Matches are the union of DefaultThemes and ActivityThemes in vocabulary order.
func ExtractThemes(text string) []string {
	lower := strings.ToLower(text)
	hits := []string{}
	for _, vocab := range [][]string{DefaultThemes, ActivityThemes} {
		for _, t := range vocab {
			if strings.Contains(lower, t) {
				hits = append(hits, t)
			}
		}
	}
	return entry.MergeThemes(hits)
}

// AnalyzeEntry builds an entry for date from text, merging extracted themes with tags.
func AnalyzeEntry(date, text string, tags []string) entry.Entry {
	return entry.Entry{
		Date:      date,
		Text:      text,
		Sentiment: Analyze(text),
		Themes:    entry.MergeThemes(ExtractThemes(text), tags),
	}
}
