// Package index stores entry embeddings for semantic retrieval.
//
// Backends differ in consistency: the sqlite backend is read-your-writes,
// while chroma and meili may not return a document immediately after Upsert.
package index

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

// Sentinel errors for index operations.
var (
	ErrIndex      = errors.New("index error")
	ErrValidation = errors.New("validation error")
)

// Doc is one indexed entry.
type Doc struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	Sentiment float64   `json:"sentiment"`
	Themes    []string  `json:"themes"`
	Timestamp int64     `json:"ts"`
	Embedding []float32 `json:"-"`
}

// Entry converts the document back into a journal entry.
func (d Doc) Entry() entry.Entry {
	themes := d.Themes
	if themes == nil {
		themes = []string{}
	}
	return entry.Entry{ID: d.ID, Date: d.Date, Text: d.Text, Sentiment: d.Sentiment, Themes: themes}
}

// Filter restricts a query to documents with From <= Timestamp <= To (unix ms).
type Filter struct {
	From int64
	To   int64
}

// Contains reports whether ts lies within the filter.
func (f Filter) Contains(ts int64) bool {
	return ts >= f.From && ts <= f.To
}

// Match is a query hit with its cosine similarity.
type Match struct {
	Doc
	Score float64 `json:"score"`
}

// Index is a vector store keyed by document ID.
type Index interface {
	// Upsert stores doc, replacing any document with the same ID.
	Upsert(ctx context.Context, doc Doc) error

	// Query returns up to topK documents most similar to vector within filter.
	Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error)

	// Reset drops every document.
	Reset(ctx context.Context) error

	// Healthy returns nil when the backend is reachable.
	Healthy(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Timestamp returns the unix millisecond timestamp of a YYYY-MM-DD date at UTC midnight.
func Timestamp(date string) (int64, error) {
	t, err := time.Parse(entry.DateLayout, date)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// Cosine returns the cosine similarity of a and b, or 0 when undefined.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank orders matches by score descending, ties by ID, and keeps topK.
func Rank(matches []Match, topK int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
