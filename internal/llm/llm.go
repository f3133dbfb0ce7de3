// Package llm calls the OpenAI API for daily prompts, monthly reflections and
// entry embeddings.
package llm

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/chris-regnier/reflectctl/internal/reflection"
)

// Error classes returned by generators and embedders.
var (
	ErrMissingKey = errors.New("OPENAI_API_KEY is not set")
	ErrUpstream   = errors.New("llm upstream error")
	ErrTransport  = errors.New("llm transport error")
)

// Generator produces text from a system/user message pair.
type Generator interface {
	// Prompt returns a short journaling question.
	Prompt(ctx context.Context, m reflection.Messages) (string, error)

	// Reflection returns raw model output expected to hold a reflection JSON object.
	Reflection(ctx context.Context, m reflection.Messages) (string, error)
}

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Classify maps a generator error to the fallback source it should be reported as.
func Classify(err error) reflection.Source {
	switch {
	case err == nil:
		return reflection.SourceOpenAI
	case errors.Is(err, ErrMissingKey):
		return reflection.SourceMissingKey
	case errors.Is(err, ErrUpstream),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return reflection.SourceOpenAIError
	default:
		return reflection.SourceException
	}
}
