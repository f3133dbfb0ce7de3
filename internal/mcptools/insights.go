package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/reflection"
)

func (t *tools) weeklyInsight(ctx context.Context, req *mcp.CallToolRequest, input WeeklyInsightInput) (*mcp.CallToolResult, WeeklyInsightOutput, error) {
	entries, err := t.journal.Entries()
	if err != nil {
		return nil, WeeklyInsightOutput{}, err
	}
	now := t.now()
	week := insights.SummarizeWeek(entries, now)
	today, streak := insights.Streak(entries, now)

	return nil, WeeklyInsightOutput{
		Summary:    week.Summary,
		Count:      week.Count,
		Avg:        week.Avg,
		Highlights: week.Highlights,
		Streak:     streak,
		WroteToday: today,
		Sparkline:  insights.Sparkline(insights.Trend(reflection.LastN(entries, reflection.RecentLimit))),
	}, nil
}

func (t *tools) monthlyStats(ctx context.Context, req *mcp.CallToolRequest, input MonthlyStatsInput) (*mcp.CallToolResult, MonthlyStatsOutput, error) {
	entries, err := t.journal.Entries()
	if err != nil {
		return nil, MonthlyStatsOutput{}, err
	}
	now := t.now()
	month := reflection.InMonth(entries, now)

	r := reflection.NoEntries()
	if len(month) > 0 {
		r = reflection.LocalSnapshot(month)
	}
	return nil, MonthlyStatsOutput{
		Month:   now.Format("2006-01"),
		Entries: len(month),
		Avg:     r.Avg,
		Themes:  r.Themes,
		Summary: r.Summary,
	}, nil
}
