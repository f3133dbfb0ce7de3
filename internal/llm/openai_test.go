package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/chris-regnier/reflectctl/internal/reflection"
)

const responseBody = `{
  "id": "resp_1",
  "object": "response",
  "created_at": 1700000000,
  "status": "completed",
  "model": "gpt-4o-mini",
  "output": [{
    "type": "message",
    "id": "msg_1",
    "status": "completed",
    "role": "assistant",
    "content": [{"type": "output_text", "text": "What small win mattered today?", "annotations": []}]
  }]
}`

const embeddingBody = `{
  "object": "list",
  "model": "text-embedding-3-small",
  "data": [{"object": "embedding", "index": 0, "embedding": [0.5, -0.25]}],
  "usage": {"prompt_tokens": 2, "total_tokens": 2}
}`

type recorder struct {
	mu     sync.Mutex
	bodies []map[string]interface{}
}

func (r *recorder) all() []map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]interface{}(nil), r.bodies...)
}

func newFakeAPI(t *testing.T, status int) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, body)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		if strings.HasSuffix(r.URL.Path, "/embeddings") {
			w.Write([]byte(embeddingBody))
			return
		}
		w.Write([]byte(responseBody))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(baseURL, key string) *OpenAI {
	return NewOpenAI(Config{APIKey: key, Model: "gpt-4o-mini", EmbedModel: "text-embedding-3-small", BaseURL: baseURL}, nil)
}

func TestPrompt(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK)
	c := newTestClient(srv.URL+"/v1/", "sk-test")

	got, err := c.Prompt(context.Background(), reflection.Messages{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if got != "What small win mattered today?" {
		t.Errorf("Prompt = %q", got)
	}
	if len(rec.all()) != 1 {
		t.Fatalf("expected one request, got %d", len(rec.all()))
	}
	body := rec.all()[0]
	if body["instructions"] != "sys" || body["max_output_tokens"] != float64(promptMaxTokens) {
		t.Errorf("unexpected request body %v", body)
	}
}

func TestReflectionRequestsSchema(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK)
	c := newTestClient(srv.URL+"/v1/", "sk-test")
	if _, err := c.Reflection(context.Background(), reflection.Messages{System: "sys", User: "usr"}); err != nil {
		t.Fatalf("Reflection: %v", err)
	}
	text, _ := rec.all()[0]["text"].(map[string]interface{})
	format, _ := text["format"].(map[string]interface{})
	if format["type"] != "json_schema" || format["strict"] != true {
		t.Errorf("unexpected text format %v", format)
	}
}

func TestMissingKey(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1/", "")
	_, err := c.Prompt(context.Background(), reflection.Messages{})
	if !errors.Is(err, ErrMissingKey) || Classify(err) != reflection.SourceMissingKey {
		t.Errorf("expected missing key, got %v", err)
	}
	if _, err := c.Embed(context.Background(), "x"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("Embed: expected missing key, got %v", err)
	}
}

func TestUpstreamErrorIsNotRetried(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusInternalServerError)
	c := newTestClient(srv.URL+"/v1/", "sk-test")
	_, err := c.Prompt(context.Background(), reflection.Messages{})
	if Classify(err) != reflection.SourceOpenAIError {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(rec.all()) != 1 {
		t.Errorf("expected a single attempt, got %d", len(rec.all()))
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := newTestClient(url+"/v1/", "sk-test")
	_, err := c.Prompt(context.Background(), reflection.Messages{})
	if Classify(err) != reflection.SourceException {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusInternalServerError)
	c := newTestClient(srv.URL+"/v1/", "sk-test")
	for i := 0; i < 6; i++ {
		_, err := c.Prompt(context.Background(), reflection.Messages{})
		if Classify(err) != reflection.SourceOpenAIError {
			t.Fatalf("call %d: expected upstream classification, got %v", i, err)
		}
	}
	if len(rec.all()) != 5 {
		t.Errorf("open breaker should short-circuit: %d requests", len(rec.all()))
	}
}

func TestEmbed(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK)
	c := newTestClient(srv.URL+"/v1/", "sk-test")
	v, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 2 || v[0] != 0.5 || v[1] != -0.25 {
		t.Errorf("Embed = %v", v)
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != reflection.SourceOpenAI {
		t.Error("nil error should classify as openai")
	}
	if Classify(errors.New("dial tcp: refused")) != reflection.SourceException {
		t.Error("unknown errors should classify as exception")
	}
}
