package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/llm"
	"github.com/chris-regnier/reflectctl/internal/reflection"
	"github.com/chris-regnier/reflectctl/internal/server"
	"github.com/chris-regnier/reflectctl/internal/service"
)

var now = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

type stubGenerator struct {
	prompt     string
	reflection string
	err        error
}

func (g stubGenerator) Prompt(context.Context, reflection.Messages) (string, error) {
	return g.prompt, g.err
}

func (g stubGenerator) Reflection(context.Context, reflection.Messages) (string, error) {
	return g.reflection, g.err
}

func newClient(t *testing.T, gen llm.Generator) *Client {
	t.Helper()
	svc := service.New(gen, service.WithClock(func() time.Time { return now }), service.WithModel("gpt-4o-mini", true))
	srv := httptest.NewServer(server.New(svc).Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func unreachable(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return New(url)
}

var entries = []entry.Entry{
	{ID: "aaaa1111", Date: "2025-01-05", Text: "stressful deadline", Sentiment: -0.5, Themes: []string{"work"}},
	{ID: "bbbb2222", Date: "2025-01-06", Text: "walked by the river", Sentiment: 0.5, Themes: []string{"walk"}},
}

func TestGeneratePrompt(t *testing.T) {
	c := newClient(t, stubGenerator{prompt: "What made the walk special?"})
	resp, err := c.GeneratePrompt(context.Background(), []string{"move"}, entries)
	if err != nil {
		t.Fatalf("GeneratePrompt: %v", err)
	}
	if resp.Prompt != "What made the walk special?" || resp.Source != reflection.SourceOpenAI {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMonthlyReflectionFallbackSource(t *testing.T) {
	c := newClient(t, stubGenerator{err: llm.ErrMissingKey})
	resp, err := c.MonthlyReflection(context.Background(), nil, entries)
	if err != nil {
		t.Fatalf("MonthlyReflection: %v", err)
	}
	if resp.Source != reflection.SourceMissingKey || resp.Reflection.Avg != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealth(t *testing.T) {
	h, err := newClient(t, stubGenerator{}).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !h.OK || !h.KeySet || h.Model != "gpt-4o-mini" {
		t.Errorf("health = %+v", h)
	}
}

func TestIndexEntryWithoutIndex(t *testing.T) {
	err := newClient(t, stubGenerator{}).IndexEntry(context.Background(), entries[0])
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestIndexEntryRejected(t *testing.T) {
	err := newClient(t, stubGenerator{}).IndexEntry(context.Background(), entry.Entry{ID: "cccc3333", Date: "2025-01-07"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for 400, got %v", err)
	}
}

func TestUnreachableErrors(t *testing.T) {
	if _, err := unreachable(t).Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestPromptOrLocal(t *testing.T) {
	resp := unreachable(t).PromptOrLocal(context.Background(), nil, entries, false)
	if resp.Source != reflection.SourceLocal {
		t.Errorf("source = %s", resp.Source)
	}
	if resp.Prompt != "How did moving your body affect your energy today?" {
		t.Errorf("prompt = %q", resp.Prompt)
	}

	resp = newClient(t, stubGenerator{prompt: "Remote?"}).PromptOrLocal(context.Background(), nil, entries, false)
	if resp.Prompt != "Remote?" {
		t.Errorf("prompt = %q", resp.Prompt)
	}
}

func TestReflectionOrLocal(t *testing.T) {
	resp := unreachable(t).ReflectionOrLocal(context.Background(), nil, entries, now, false)
	if resp.Source != reflection.SourceLocal || resp.Reflection.Avg != 0 || len(resp.Reflection.Themes) != 2 {
		t.Errorf("resp = %+v", resp)
	}

	resp = unreachable(t).ReflectionOrLocal(context.Background(), nil, entries, now.AddDate(0, 1, 0), false)
	if resp.Source != reflection.SourceNoEntries {
		t.Errorf("source = %s", resp.Source)
	}
}
