package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/random"
	"github.com/sashabaranov/go-openai"
)

const (
	maxTokens   = 1000
	temperature = 0.8
	// callTimeout bounds a single provider call. Slow LLM backends are treated the same
	// as unreachable ones so the game can degrade to fallback content.
	callTimeout = 15 * time.Second
)

// ErrNoContent marks a provider failure: timeout, transport error, non-2xx status or an
// empty completion. Callers route it into fallback content instead of failing the request.
var ErrNoContent = errors.NewSentinel("provider returned no content")

// Endpoint is one OpenAI-compatible completion backend.
type Endpoint struct {
	// BaseURL is the API base, e.g. https://api.siliconflow.cn/v1. The completion path
	// is appended by the client library.
	BaseURL string
	APIKey  string
	Model   string
}

type backend struct {
	client *openai.Client
	model  string
	url    string
}

// Client fans completion requests out to a pool of endpoints. Each call picks an endpoint
// uniformly at random. This spreads load, it is not failover: a failing endpoint stays in
// the pool and can be picked again on the next call.
type Client struct {
	backends []backend
	logger   *slog.Logger
}

// NewClient builds a pooled completion client. At least one endpoint is required.
func NewClient(logger *slog.Logger, endpoints ...Endpoint) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("at least one completion endpoint must be configured")
	}
	backends := make([]backend, len(endpoints))
	for i, endpoint := range endpoints {
		cfg := openai.DefaultConfig(endpoint.APIKey)
		cfg.BaseURL = endpoint.BaseURL
		backends[i] = backend{
			client: openai.NewClientWithConfig(cfg),
			model:  endpoint.Model,
			url:    endpoint.BaseURL,
		}
	}
	return &Client{
		backends: backends,
		logger:   logger.With("source", "ai.Client"),
	}, nil
}

// Complete sends the prompt to a randomly chosen endpoint and returns the generated text.
// Every failure mode collapses into ErrNoContent.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	picked, err := random.IntN(len(c.backends))
	if err != nil {
		return "", errors.Wrap(err, "pick endpoint")
	}
	b := c.backends[picked]

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	c.logger.LogAttrs(ctx, slog.LevelDebug, "completion request",
		slog.String("endpoint", b.url), slog.String("model", b.model), slog.Int("prompt_len", len(prompt)))

	completion, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:       b.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "completion failed",
			slog.String("endpoint", b.url), errors.SlogError(err))
		return "", errors.Wrap(ErrNoContent, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(ErrNoContent, "empty choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// CompleteWithRetry retries Complete with linear backoff, for the terminal client where
// waiting beats degrading. It gives up after attempts tries or when ctx is done.
func (c *Client) CompleteWithRetry(ctx context.Context, prompt string, attempts int) (string, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", errors.Wrap(ctx.Err(), "retry cancelled")
			case <-time.After(time.Duration(i) * time.Second):
			}
		}
		var content string
		if content, lastErr = c.Complete(ctx, prompt); lastErr == nil {
			return content, nil
		}
	}
	return "", errors.Wrap(lastErr, "retries exhausted", slog.Int("attempts", attempts))
}
