// Package client talks to the reflectctl prompt service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/index"
	"github.com/chris-regnier/reflectctl/internal/service"
)

// DefaultBaseURL is where `reflectctl serve` listens by default.
const DefaultBaseURL = "http://localhost:8787"

// ErrUnavailable wraps any failure to get a usable answer from the service.
var ErrUnavailable = errors.New("prompt service unavailable")

// Client calls the service API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client for baseURL, using DefaultBaseURL when empty.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GeneratePrompt requests a daily prompt from goals and recent entries.
func (c *Client) GeneratePrompt(ctx context.Context, goals []string, recent []entry.Entry) (service.PromptResponse, error) {
	var out service.PromptResponse
	err := c.post(ctx, "/api/generate-prompt", service.PromptRequest{Goals: goals, RecentEntries: recent}, &out)
	return out, err
}

// GeneratePromptRAG requests a daily prompt grounded in indexed entries.
func (c *Client) GeneratePromptRAG(ctx context.Context, goals []string) (service.PromptResponse, error) {
	var out service.PromptResponse
	err := c.post(ctx, "/api/generate-prompt-rag", map[string][]string{"goals": goals}, &out)
	return out, err
}

// MonthlyReflection requests a reflection over entries.
func (c *Client) MonthlyReflection(ctx context.Context, goals []string, entries []entry.Entry) (service.ReflectionResponse, error) {
	var out service.ReflectionResponse
	err := c.post(ctx, "/api/monthly-reflection", service.ReflectionRequest{Goals: goals, Entries: entries}, &out)
	return out, err
}

// MonthlyReflectionRAG requests a reflection over the month's indexed entries.
func (c *Client) MonthlyReflectionRAG(ctx context.Context, goals []string) (service.ReflectionResponse, error) {
	var out service.ReflectionResponse
	err := c.post(ctx, "/api/monthly-reflection-rag", map[string][]string{"goals": goals}, &out)
	return out, err
}

// IndexEntry asks the service to index e under its ID.
func (c *Client) IndexEntry(ctx context.Context, e entry.Entry) error {
	req := index.IndexRequest{ID: e.ID, Date: e.Date, Text: e.Text, Sentiment: entry.Score(e), Themes: e.Themes}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.post(ctx, "/api/index-entry", req, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("%w: entry %s was not indexed", ErrUnavailable, e.ID)
	}
	return nil
}

// Health fetches the service health.
func (c *Client) Health(ctx context.Context) (service.Health, error) {
	var out service.Health
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	err = c.do(req, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnavailable, req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return nil
}
