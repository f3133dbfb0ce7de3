package mcptools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/reflectctl/internal/analyzer"
	"github.com/chris-regnier/reflectctl/internal/entry"
)

const (
	defaultListLimit = 20
	previewLength    = 200
)

func toResult(e entry.Entry) EntryResult {
	themes := e.Themes
	if themes == nil {
		themes = []string{}
	}
	return EntryResult{
		ID:        e.ID,
		Date:      e.Date,
		Preview:   e.Preview(previewLength),
		Sentiment: entry.Round2(entry.Score(e)),
		Themes:    themes,
	}
}

func (t *tools) listEntries(ctx context.Context, req *mcp.CallToolRequest, input ListEntriesInput) (*mcp.CallToolResult, ListEntriesOutput, error) {
	if input.Month != "" {
		if _, err := time.Parse("2006-01", input.Month); err != nil {
			return nil, ListEntriesOutput{}, fmt.Errorf("invalid month %q: want YYYY-MM", input.Month)
		}
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, err := t.journal.Entries()
	if err != nil {
		return nil, ListEntriesOutput{}, err
	}

	results := []EntryResult{}
	for i := len(entries) - 1; i >= 0 && len(results) < limit; i-- {
		if input.Month != "" && !strings.HasPrefix(entries[i].Date, input.Month+"-") {
			continue
		}
		results = append(results, toResult(entries[i]))
	}
	return nil, ListEntriesOutput{Entries: results}, nil
}

func (t *tools) addEntry(ctx context.Context, req *mcp.CallToolRequest, input AddEntryInput) (*mcp.CallToolResult, AddEntryOutput, error) {
	text := strings.TrimSpace(input.Text)
	if err := entry.ValidateText(text); err != nil {
		return nil, AddEntryOutput{}, err
	}

	e, err := t.journal.Add(ctx, analyzer.AnalyzeEntry(entry.Today(t.now()), text, input.Tags))
	if err != nil {
		return nil, AddEntryOutput{}, err
	}

	if t.indexer != nil {
		_ = t.indexer.IndexEntry(ctx, e)
	}
	return nil, AddEntryOutput{Entry: toResult(e)}, nil
}
