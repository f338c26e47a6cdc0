package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sashabaranov/go-openai"
)

// defaultOpenAIModel is used when no model is configured for the direct
// OpenAI provider.
const defaultOpenAIModel = "gpt-4o"

// OpenAIClient answers questions through the OpenAI API using the go-openai
// SDK. It ignores the referer argument; attribution headers are an
// OpenRouter concern.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates a client for the OpenAI API. cfg.BaseURL overrides the
// endpoint for tests or OpenAI-compatible gateways.
func NewOpenAI(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
	}
}

// Complete sends one chat completion and returns the answer text.
// Errors wrap ErrTimeout, ErrUnavailable, or ErrMalformed; no retries.
func (c *OpenAIClient) Complete(ctx context.Context, question, summary, _ string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(summary)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		MaxTokens:   maxAnswerTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", classifyOpenAIError(err, c.timeout)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no completion choices", ErrMalformed)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError folds the SDK's error zoo onto the package sentinels.
func classifyOpenAIError(err error, timeout time.Duration) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case errors.As(err, &apiErr):
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	case errors.As(err, &reqErr):
		return fmt.Errorf("%w: status %d", ErrUnavailable, reqErr.HTTPStatusCode)
	case errors.As(err, &urlErr):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		// The SDK only fails without a status or transport error when a
		// 2xx body does not parse.
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
