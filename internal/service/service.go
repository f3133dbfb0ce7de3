// Package service generates daily prompts and monthly reflections, falling
// back to local results whenever generation is unavailable. Every response
// carries the source it came from.
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/index"
	"github.com/chris-regnier/reflectctl/internal/llm"
	"github.com/chris-regnier/reflectctl/internal/metrics"
	"github.com/chris-regnier/reflectctl/internal/reflection"
)

// ErrNoIndex is returned by index operations when no retrieval index is configured.
var ErrNoIndex = errors.New("no retrieval index configured")

// Retriever is the retrieval index as seen by the service.
type Retriever interface {
	IndexEntry(ctx context.Context, req index.IndexRequest) error
	Retrieve(ctx context.Context, query string, w index.Window, topK int) ([]entry.Entry, error)
	Healthy(ctx context.Context) error
	Reset(ctx context.Context) error
}

// PromptRequest asks for a daily prompt.
type PromptRequest struct {
	Goals         []string      `json:"goals"`
	RecentEntries []entry.Entry `json:"recentEntries"`
}

// PromptResponse is a daily prompt and its source.
type PromptResponse struct {
	Prompt    string            `json:"prompt"`
	Source    reflection.Source `json:"source"`
	Retrieved *int              `json:"retrieved,omitempty"`
}

// ReflectionRequest asks for a reflection over entries.
type ReflectionRequest struct {
	Goals   []string      `json:"goals"`
	Entries []entry.Entry `json:"entries"`
}

// ReflectionResponse is a monthly reflection and its source.
type ReflectionResponse struct {
	Reflection entry.MonthlyReflection `json:"reflection"`
	Source     reflection.Source       `json:"source"`
}

// Health describes the service configuration.
type Health struct {
	OK     bool   `json:"ok"`
	Chroma *bool  `json:"chroma,omitempty"`
	Model  string `json:"model,omitempty"`
	KeySet bool   `json:"keySet"`
}

// Service orchestrates generation and retrieval.
type Service struct {
	gen     llm.Generator
	ret     Retriever
	model   string
	keySet  bool
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRetriever enables the retrieval-augmented operations.
func WithRetriever(r Retriever) Option {
	return func(s *Service) { s.ret = r }
}

// WithMetrics records outcomes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source used for calendar windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithModel sets what the health endpoint reports.
func WithModel(model string, keySet bool) Option {
	return func(s *Service) {
		s.model = model
		s.keySet = keySet
	}
}

// New creates a Service using gen for generation.
func New(gen llm.Generator, opts ...Option) *Service {
	s := &Service{gen: gen, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DailyPrompt generates a question from goals and the last recent entries.
func (s *Service) DailyPrompt(ctx context.Context, req PromptRequest) PromptResponse {
	recent := reflection.LastN(req.RecentEntries, reflection.RecentLimit)
	prompt, src := s.prompt(ctx, req.Goals, recent, nil)
	return PromptResponse{Prompt: prompt, Source: src}
}

// DailyPromptRAG generates a question grounded in entries retrieved for goals.
// A failed retrieval proceeds without context.
func (s *Service) DailyPromptRAG(ctx context.Context, goals []string) PromptResponse {
	related, err := s.retrieve(ctx, goals, index.PromptWindow(s.now()), index.PromptTopK)
	if err != nil {
		s.logger.Warn("retrieval failed, prompting without context", zap.Error(err))
		related = nil
	}
	prompt, src := s.prompt(ctx, goals, nil, related)
	n := len(related)
	return PromptResponse{Prompt: prompt, Source: src, Retrieved: &n}
}

func (s *Service) prompt(ctx context.Context, goals []string, recent, related []entry.Entry) (string, reflection.Source) {
	text, err := s.gen.Prompt(ctx, reflection.PromptMessages(goals, recent, related))
	fallbackContext := recent
	if len(fallbackContext) == 0 {
		fallbackContext = chronological(related)
	}

	var src reflection.Source
	switch {
	case err != nil:
		src = llm.Classify(err)
		s.logger.Warn("prompt generation failed", zap.String("source", string(src)), zap.Error(err))
		text = reflection.FallbackPrompt(goals, fallbackContext)
	default:
		src = reflection.SourceOpenAI
		text = strings.TrimSpace(text)
		if text == "" {
			text = reflection.FallbackPrompt(goals, fallbackContext)
		}
	}
	s.metrics.Generation("prompt", string(src))
	return text, src
}

// MonthlyReflection reflects on the entries of the current calendar month.
func (s *Service) MonthlyReflection(ctx context.Context, req ReflectionRequest) ReflectionResponse {
	return s.reflect(ctx, req.Goals, reflection.InMonth(req.Entries, s.now()))
}

// MonthlyReflectionRAG reflects on the month's entries found in the index.
func (s *Service) MonthlyReflectionRAG(ctx context.Context, goals []string) ReflectionResponse {
	now := s.now()
	found, err := s.retrieve(ctx, goals, index.MonthWindow(now), index.MonthTopK)
	if err != nil {
		s.logger.Warn("retrieval failed for monthly reflection", zap.Error(err))
		s.metrics.Generation("reflection", string(reflection.SourceException))
		return ReflectionResponse{Reflection: reflection.NetworkHiccup(nil), Source: reflection.SourceException}
	}
	return s.reflect(ctx, goals, reflection.InMonth(chronological(found), now))
}

func (s *Service) reflect(ctx context.Context, goals []string, month []entry.Entry) ReflectionResponse {
	resp := s.generateReflection(ctx, goals, month)
	s.metrics.Generation("reflection", string(resp.Source))
	return resp
}

func (s *Service) generateReflection(ctx context.Context, goals []string, month []entry.Entry) ReflectionResponse {
	if len(month) == 0 {
		return ReflectionResponse{Reflection: reflection.NoEntries(), Source: reflection.SourceNoEntries}
	}

	raw, err := s.gen.Reflection(ctx, reflection.ReflectionMessages(goals, month))
	if err != nil {
		src := llm.Classify(err)
		s.logger.Warn("reflection generation failed", zap.String("source", string(src)), zap.Error(err))
		return ReflectionResponse{Reflection: reflection.Fallback(src, month), Source: src}
	}

	r, err := reflection.ParseReflection(raw)
	if err != nil {
		s.logger.Warn("reflection output rejected", zap.Int("bytes", len(raw)), zap.Error(err))
		return ReflectionResponse{Reflection: reflection.ParseFailure(month), Source: reflection.SourceParseError}
	}
	// The average is always the local one so it matches the entries exactly.
	r.Avg, _ = reflection.Aggregate(month)
	return ReflectionResponse{Reflection: r, Source: reflection.SourceOpenAI}
}

func (s *Service) retrieve(ctx context.Context, goals []string, w index.Window, topK int) ([]entry.Entry, error) {
	if s.ret == nil {
		return nil, ErrNoIndex
	}
	return s.ret.Retrieve(ctx, reflection.RetrievalQuery(goals), w, topK)
}

// IndexEntry embeds and stores one entry.
func (s *Service) IndexEntry(ctx context.Context, req index.IndexRequest) error {
	if s.ret == nil {
		return ErrNoIndex
	}
	err := s.ret.IndexEntry(ctx, req)
	s.metrics.IndexOp("upsert", err)
	if err != nil {
		s.logger.Warn("indexing entry failed", zap.String("id", req.ID), zap.Error(err))
	}
	return err
}

// ResetIndex drops every indexed entry.
func (s *Service) ResetIndex(ctx context.Context) error {
	if s.ret == nil {
		return ErrNoIndex
	}
	err := s.ret.Reset(ctx)
	s.metrics.IndexOp("reset", err)
	return err
}

// Health reports configuration and index reachability.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{OK: true, Model: s.model, KeySet: s.keySet}
	if s.ret != nil {
		ok := s.ret.Healthy(ctx) == nil
		h.Chroma = &ok
	}
	return h
}

func chronological(entries []entry.Entry) []entry.Entry {
	out := entry.Clone(entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
