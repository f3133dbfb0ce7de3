package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

// Retrieval windows.
const (
	PromptWindowDays = 45
	PromptTopK       = 8
	MonthTopK        = 50
)

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexRequest is an entry to embed and store.
type IndexRequest struct {
	ID        string   `json:"id" validate:"required"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Text      string   `json:"text" validate:"required"`
	Sentiment float64  `json:"sentiment"`
	Themes    []string `json:"themes"`
}

// Window is an inclusive time range.
type Window struct {
	From time.Time
	To   time.Time
}

// Filter converts the window to a timestamp filter.
func (w Window) Filter() Filter {
	return Filter{From: w.From.UnixMilli(), To: w.To.UnixMilli()}
}

func utcDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PromptWindow covers the trailing PromptWindowDays days up to the end of today.
func PromptWindow(now time.Time) Window {
	today := utcDate(now)
	return Window{
		From: today.AddDate(0, 0, -PromptWindowDays),
		To:   today.AddDate(0, 0, 1).Add(-time.Millisecond),
	}
}

// MonthWindow covers the calendar month of now.
func MonthWindow(now time.Time) Window {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{From: first, To: first.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// Retriever embeds entries into an index and queries it.
type Retriever struct {
	idx Index
	emb Embedder
}

// NewRetriever creates a Retriever.
func NewRetriever(idx Index, emb Embedder) *Retriever {
	return &Retriever{idx: idx, emb: emb}
}

// Index returns the underlying index.
func (r *Retriever) Index() Index {
	return r.idx
}

// IndexEntry embeds req.Text and upserts it under req.ID.
func (r *Retriever) IndexEntry(ctx context.Context, req IndexRequest) error {
	if req.ID == "" || req.Date == "" || strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: id, date and text are required", ErrValidation)
	}
	ts, err := Timestamp(req.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	vec, err := r.emb.Embed(ctx, req.Text)
	if err != nil {
		return fmt.Errorf("embedding entry %s: %w", req.ID, err)
	}
	return r.idx.Upsert(ctx, Doc{
		ID:        req.ID,
		Date:      req.Date,
		Text:      req.Text,
		Sentiment: req.Sentiment,
		Themes:    entry.MergeThemes(req.Themes),
		Timestamp: ts,
		Embedding: vec,
	})
}

// Retrieve returns up to topK entries related to query inside window, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, w Window, topK int) ([]entry.Entry, error) {
	vec, err := r.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := r.idx.Query(ctx, vec, w.Filter(), topK)
	if err != nil {
		return nil, err
	}
	out := make([]entry.Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Entry())
	}
	return out, nil
}

// Healthy reports whether the underlying index is reachable.
func (r *Retriever) Healthy(ctx context.Context) error {
	return r.idx.Healthy(ctx)
}

// Reset drops every indexed document.
func (r *Retriever) Reset(ctx context.Context) error {
	return r.idx.Reset(ctx)
}
