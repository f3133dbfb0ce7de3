package client

import (
	"context"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/reflection"
	"github.com/chris-regnier/reflectctl/internal/service"
)

// PromptOrLocal asks the service for a prompt and answers locally when it
// cannot be reached. entries is the whole journal in order.
func (c *Client) PromptOrLocal(ctx context.Context, goals []string, entries []entry.Entry, rag bool) service.PromptResponse {
	var (
		resp service.PromptResponse
		err  error
	)
	if rag {
		resp, err = c.GeneratePromptRAG(ctx, goals)
	} else {
		resp, err = c.GeneratePrompt(ctx, goals, reflection.LastN(entries, reflection.RecentLimit))
	}
	if err != nil || resp.Prompt == "" {
		return service.PromptResponse{
			Prompt: insights.LocalPrompt(insights.Latest(entries), goals),
			Source: reflection.SourceLocal,
		}
	}
	return resp
}

// ReflectionOrLocal asks the service for this month's reflection and falls back
// to a local snapshot when it cannot be reached.
func (c *Client) ReflectionOrLocal(ctx context.Context, goals []string, entries []entry.Entry, now time.Time, rag bool) service.ReflectionResponse {
	month := reflection.InMonth(entries, now)
	var (
		resp service.ReflectionResponse
		err  error
	)
	if rag {
		resp, err = c.MonthlyReflectionRAG(ctx, goals)
	} else {
		resp, err = c.MonthlyReflection(ctx, goals, month)
	}
	if err != nil || resp.Source == "" {
		if len(month) == 0 {
			return service.ReflectionResponse{Reflection: reflection.NoEntries(), Source: reflection.SourceNoEntries}
		}
		return service.ReflectionResponse{Reflection: reflection.LocalSnapshot(month), Source: reflection.SourceLocal}
	}
	return resp
}
