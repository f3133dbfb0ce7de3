package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/reflection"
)

const (
	promptTemperature     = 0.7
	promptMaxTokens       = 120
	reflectionTemperature = 0.6
	reflectionMaxTokens   = 400
)

// Config configures the OpenAI client.
type Config struct {
	APIKey     string
	Model      string
	EmbedModel string
	BaseURL    string
	Timeout    time.Duration
}

// OpenAI implements Generator and Embedder on the OpenAI API.
type OpenAI struct {
	client     *openai.Client
	model      string
	embedModel string
	keySet     bool
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	schema     map[string]interface{}
}

// NewOpenAI creates a client. With an empty API key every call fails with ErrMissingKey.
func NewOpenAI(cfg Config, logger *zap.Logger) *OpenAI {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Failures are handled once by falling back locally.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAI{
		client:     &client,
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		keySet:     cfg.APIKey != "",
		timeout:    timeout,
		breaker:    newBreaker("openai", logger),
		logger:     logger,
		schema:     reflection.Schema(),
	}
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// KeySet reports whether an API key was configured.
func (o *OpenAI) KeySet() bool {
	return o.keySet
}

// Model returns the generation model name.
func (o *OpenAI) Model() string {
	return o.model
}

// Prompt generates a daily question.
func (o *OpenAI) Prompt(ctx context.Context, m reflection.Messages) (string, error) {
	params := responses.ResponseNewParams{
		Model:           o.model,
		Temperature:     openai.Float(promptTemperature),
		MaxOutputTokens: openai.Int(promptMaxTokens),
		Instructions:    openai.String(m.System),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(m.User, responses.EasyInputMessageRoleUser),
			},
		},
	}
	return o.respond(ctx, params)
}

// Reflection generates a monthly reflection constrained to the reflection schema.
func (o *OpenAI) Reflection(ctx context.Context, m reflection.Messages) (string, error) {
	params := responses.ResponseNewParams{
		Model:           o.model,
		Temperature:     openai.Float(reflectionTemperature),
		MaxOutputTokens: openai.Int(reflectionMaxTokens),
		Instructions:    openai.String(m.System),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(m.User, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "MonthlyReflection",
					Schema:      o.schema,
					Strict:      openai.Bool(true),
					Description: openai.String("Monthly journal reflection"),
					Type:        "json_schema",
				},
			},
		},
	}
	return o.respond(ctx, params)
}

func (o *OpenAI) respond(ctx context.Context, params responses.ResponseNewParams) (string, error) {
	if !o.keySet {
		return "", ErrMissingKey
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.breaker.Execute(func() (interface{}, error) {
		resp, err := o.client.Responses.New(ctx, params)
		if err != nil {
			return nil, classifyCall(err)
		}
		return resp.OutputText(), nil
	})
	if err != nil {
		o.logger.Warn("openai call failed", zap.String("model", o.model), zap.Error(err))
		return "", err
	}
	return out.(string), nil
}

// Embed returns the embedding of text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if !o.keySet {
		return nil, ErrMissingKey
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.breaker.Execute(func() (interface{}, error) {
		resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model:          openai.EmbeddingModel(o.embedModel),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return nil, classifyCall(err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("%w: empty embedding response", ErrUpstream)
		}
		return toFloat32(resp.Data[0].Embedding), nil
	})
	if err != nil {
		o.logger.Warn("openai embedding failed", zap.String("model", o.embedModel), zap.Error(err))
		return nil, err
	}
	return out.([]float32), nil
}

func classifyCall(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %v", ErrUpstream, apiErr.StatusCode, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
