package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/index"
	"github.com/chris-regnier/reflectctl/internal/llm"
	"github.com/chris-regnier/reflectctl/internal/metrics"
	"github.com/chris-regnier/reflectctl/internal/reflection"
)

var january = time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	prompt     string
	reflection string
	err        error
	last       reflection.Messages
}

func (f *fakeGenerator) Prompt(_ context.Context, m reflection.Messages) (string, error) {
	f.last = m
	return f.prompt, f.err
}

func (f *fakeGenerator) Reflection(_ context.Context, m reflection.Messages) (string, error) {
	f.last = m
	return f.reflection, f.err
}

type fakeRetriever struct {
	entries []entry.Entry
	err     error
	indexed []index.IndexRequest
	window  index.Window
	topK    int
}

func (f *fakeRetriever) IndexEntry(_ context.Context, req index.IndexRequest) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, req)
	return nil
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, w index.Window, topK int) ([]entry.Entry, error) {
	f.window, f.topK = w, topK
	return f.entries, f.err
}

func (f *fakeRetriever) Healthy(context.Context) error { return f.err }
func (f *fakeRetriever) Reset(context.Context) error   { return f.err }

var scenario = []entry.Entry{
	{Date: "2025-01-01", Text: "rough night", Sentiment: -1, Themes: []string{"sleep"}},
	{Date: "2025-01-02", Text: "good focus", Sentiment: 1, Themes: []string{"sleep", "focus"}},
}

func newService(gen llm.Generator, opts ...Option) *Service {
	return New(gen, append([]Option{WithClock(func() time.Time { return january })}, opts...)...)
}

func TestDailyPromptOpenAI(t *testing.T) {
	gen := &fakeGenerator{prompt: "  What lifted you today?\n"}
	var recent []entry.Entry
	for i := 1; i <= 9; i++ {
		recent = append(recent, entry.Entry{Date: fmt.Sprintf("2025-01-%02d", i), Text: fmt.Sprintf("day %d", i)})
	}
	resp := newService(gen).DailyPrompt(context.Background(), PromptRequest{Goals: []string{"rest"}, RecentEntries: recent})
	if resp.Prompt != "What lifted you today?" || resp.Source != reflection.SourceOpenAI {
		t.Errorf("resp = %+v", resp)
	}
	if strings.Contains(gen.last.User, "2025-01-02") || !strings.Contains(gen.last.User, "day 9") {
		t.Errorf("recent entries not limited to seven:\n%s", gen.last.User)
	}
	if resp.Retrieved != nil {
		t.Error("plain prompt must not report retrieved")
	}
}

func TestDailyPromptFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want reflection.Source
	}{
		{"missing key", llm.ErrMissingKey, reflection.SourceMissingKey},
		{"upstream", fmt.Errorf("%w: status 500", llm.ErrUpstream), reflection.SourceOpenAIError},
		{"transport", errors.New("dial tcp: connection refused"), reflection.SourceException},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newService(&fakeGenerator{err: tt.err}).DailyPrompt(context.Background(), PromptRequest{})
			if resp.Source != tt.want || resp.Prompt == "" || !resp.Source.IsFallback() {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestDailyPromptEmptyOutput(t *testing.T) {
	resp := newService(&fakeGenerator{prompt: "   "}).DailyPrompt(context.Background(), PromptRequest{
		RecentEntries: []entry.Entry{{Date: "2025-01-01", Text: "x"}},
	})
	if resp.Source != reflection.SourceOpenAI || !strings.HasPrefix(resp.Prompt, "What felt most meaningful") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDailyPromptRAG(t *testing.T) {
	gen := &fakeGenerator{prompt: "How did the walks feel?"}
	ret := &fakeRetriever{entries: []entry.Entry{{Date: "2025-01-10", Text: "river walk"}}}
	resp := newService(gen, WithRetriever(ret)).DailyPromptRAG(context.Background(), []string{"walk more"})
	if resp.Source != reflection.SourceOpenAI || resp.Retrieved == nil || *resp.Retrieved != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if ret.topK != index.PromptTopK || !ret.window.From.Equal(index.PromptWindow(january).From) {
		t.Errorf("retrieved with topK %d window %v", ret.topK, ret.window)
	}
	if !strings.Contains(gen.last.User, "river walk") {
		t.Errorf("retrieved context missing:\n%s", gen.last.User)
	}
}

func TestDailyPromptRAGRetrievalFailure(t *testing.T) {
	gen := &fakeGenerator{prompt: "Anything new?"}
	ret := &fakeRetriever{err: errors.New("index down")}
	resp := newService(gen, WithRetriever(ret)).DailyPromptRAG(context.Background(), nil)
	if resp.Source != reflection.SourceOpenAI || *resp.Retrieved != 0 {
		t.Errorf("resp = %+v", resp)
	}

	resp = newService(gen).DailyPromptRAG(context.Background(), nil)
	if resp.Prompt != "Anything new?" {
		t.Errorf("no index should still prompt: %+v", resp)
	}
}

func TestMonthlyReflectionNoEntries(t *testing.T) {
	gen := &fakeGenerator{reflection: "unused"}
	resp := newService(gen).MonthlyReflection(context.Background(), ReflectionRequest{
		Entries: []entry.Entry{{Date: "2024-12-31", Sentiment: 1}},
	})
	if resp.Source != reflection.SourceNoEntries || resp.Reflection.Avg != 0 || len(resp.Reflection.Themes) != 0 {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Reflection.Summary, "No entries this month") {
		t.Errorf("summary = %q", resp.Reflection.Summary)
	}
}

func TestMonthlyReflectionScenarioFallback(t *testing.T) {
	resp := newService(&fakeGenerator{err: fmt.Errorf("%w: 401", llm.ErrUpstream)}).MonthlyReflection(
		context.Background(), ReflectionRequest{Entries: scenario})
	if resp.Source != reflection.SourceOpenAIError {
		t.Fatalf("source = %s", resp.Source)
	}
	want := []entry.Theme{{Label: "sleep", Count: 2}, {Label: "focus", Count: 1}}
	if resp.Reflection.Avg != 0 || !reflect.DeepEqual(resp.Reflection.Themes, want) {
		t.Errorf("reflection = %+v", resp.Reflection)
	}
}

func TestMonthlyReflectionParseError(t *testing.T) {
	resp := newService(&fakeGenerator{reflection: "sorry, no JSON today"}).MonthlyReflection(
		context.Background(), ReflectionRequest{Entries: scenario})
	if resp.Source != reflection.SourceParseError || resp.Reflection.Summary == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMonthlyReflectionOpenAIUsesLocalAvg(t *testing.T) {
	raw := `{"summary":"Sleep shaped the month.","avg":1.5,"themes":[{"label":"sleep","count":2}],"suggestions":["Wind down at 10.","Keep the phone out of reach."]}`
	collector := metrics.NewCollector()
	resp := newService(&fakeGenerator{reflection: raw}, WithMetrics(collector)).MonthlyReflection(
		context.Background(), ReflectionRequest{Goals: []string{"sleep"}, Entries: scenario})
	if resp.Source != reflection.SourceOpenAI || resp.Reflection.Summary != "Sleep shaped the month." {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Reflection.Avg != 0 {
		t.Errorf("avg = %v, want the local 0", resp.Reflection.Avg)
	}
	if got := testutil.ToFloat64(collector.Generations.WithLabelValues("reflection", "openai")); got != 1 {
		t.Errorf("generation counter = %v", got)
	}
}

func TestMonthlyReflectionRAG(t *testing.T) {
	raw := `{"summary":"ok","avg":0,"themes":[],"suggestions":["a","b"]}`
	gen := &fakeGenerator{reflection: raw}
	ret := &fakeRetriever{entries: []entry.Entry{scenario[1], scenario[0]}}
	resp := newService(gen, WithRetriever(ret)).MonthlyReflectionRAG(context.Background(), nil)
	if resp.Source != reflection.SourceOpenAI || ret.topK != index.MonthTopK {
		t.Fatalf("resp = %+v, topK = %d", resp, ret.topK)
	}
	if strings.Index(gen.last.User, "2025-01-01") > strings.Index(gen.last.User, "2025-01-02") {
		t.Errorf("retrieved entries not in date order:\n%s", gen.last.User)
	}

	resp = newService(gen, WithRetriever(&fakeRetriever{err: errors.New("down")})).MonthlyReflectionRAG(context.Background(), nil)
	if resp.Source != reflection.SourceException {
		t.Errorf("source = %s", resp.Source)
	}
}

func TestIndexEntry(t *testing.T) {
	ret := &fakeRetriever{}
	s := newService(&fakeGenerator{}, WithRetriever(ret))
	req := index.IndexRequest{ID: "abc", Date: "2025-01-01", Text: "x"}
	if err := s.IndexEntry(context.Background(), req); err != nil {
		t.Fatalf("IndexEntry: %v", err)
	}
	if len(ret.indexed) != 1 || ret.indexed[0].ID != "abc" {
		t.Errorf("indexed = %+v", ret.indexed)
	}
	if err := newService(&fakeGenerator{}).IndexEntry(context.Background(), req); !errors.Is(err, ErrNoIndex) {
		t.Errorf("expected ErrNoIndex, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	h := newService(&fakeGenerator{}, WithModel("gpt-4o-mini", true)).Health(context.Background())
	if !h.OK || h.Model != "gpt-4o-mini" || !h.KeySet || h.Chroma != nil {
		t.Errorf("health = %+v", h)
	}
	h = newService(&fakeGenerator{}, WithRetriever(&fakeRetriever{err: errors.New("down")})).Health(context.Background())
	if h.Chroma == nil || *h.Chroma {
		t.Errorf("health = %+v", h)
	}
}
