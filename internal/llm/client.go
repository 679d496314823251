package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrGenerationFailed wraps any completion-service failure. Engines treat
// it as fatal to the current request and never retry.
var ErrGenerationFailed = errors.New("completion generation failed")

// CompletionService is the boundary to the text-generation model. model
// may be empty to use the client's default.
type CompletionService interface {
	Complete(ctx context.Context, model string, temperature float64, prompt string) (string, error)
}

// Options configures the OpenAI-compatible completion client.
type Options struct {
	BaseURL string
	Key     string
	Model   string
}

// Client calls an OpenAI-compatible chat completion endpoint through
// langchaingo.
type Client struct {
	llm *openai.LLM
}

func NewClient(opts Options) (*Client, error) {
	llmClient, err := openai.New(
		openai.WithBaseURL(opts.BaseURL),
		openai.WithToken(strings.TrimPrefix(opts.Key, "Bearer ")),
		openai.WithModel(opts.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing completion client: %w", err)
	}
	return &Client{llm: llmClient}, nil
}

func (c *Client) Complete(ctx context.Context, model string, temperature float64, prompt string) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}
	if model != "" {
		callOpts = append(callOpts, llms.WithModel(model))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOpts...)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("completion request failed")
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return out, nil
}
