package mcptools

import "github.com/chris-regnier/reflectctl/internal/entry"

// ListEntriesInput is the input schema for the list_entries MCP tool.
type ListEntriesInput struct {
	Month string `json:"month,omitempty" jsonschema-description:"Calendar month as YYYY-MM"`
	Limit int    `json:"limit,omitempty" jsonschema-description:"Maximum number of entries to return"`
}

// ListEntriesOutput is the output schema for the list_entries MCP tool.
type ListEntriesOutput struct {
	Entries []EntryResult `json:"entries"`
}

// EntryResult is the common output format for entry-related MCP tools.
type EntryResult struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Preview   string   `json:"preview"`
	Sentiment float64  `json:"sentiment"`
	Themes    []string `json:"themes"`
}

// AddEntryInput is the input schema for the add_entry MCP tool.
type AddEntryInput struct {
	Text string   `json:"text" jsonschema-description:"Entry text"`
	Tags []string `json:"tags,omitempty" jsonschema-description:"Quick tags merged into the entry themes"`
}

// AddEntryOutput is the output schema for the add_entry MCP tool.
type AddEntryOutput struct {
	Entry EntryResult `json:"entry"`
}

// WeeklyInsightInput is the input schema for the weekly_insight MCP tool.
type WeeklyInsightInput struct{}

// WeeklyInsightOutput is the output schema for the weekly_insight MCP tool.
type WeeklyInsightOutput struct {
	Summary    string   `json:"summary"`
	Count      int      `json:"count"`
	Avg        float64  `json:"avg"`
	Highlights []string `json:"highlights"`
	Streak     int      `json:"streak"`
	WroteToday bool     `json:"wrote_today"`
	Sparkline  string   `json:"mood_sparkline"`
}

// MonthlyStatsInput is the input schema for the monthly_stats MCP tool.
type MonthlyStatsInput struct{}

// MonthlyStatsOutput is the output schema for the monthly_stats MCP tool.
type MonthlyStatsOutput struct {
	Month   string        `json:"month"`
	Entries int           `json:"entries"`
	Avg     float64       `json:"avg"`
	Themes  []entry.Theme `json:"themes"`
	Summary string        `json:"summary"`
}
