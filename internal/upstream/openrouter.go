package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultOpenRouterBaseURL is the public OpenRouter API endpoint.
const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// defaultOpenRouterModel routes to GPT-4o through OpenRouter.
const defaultOpenRouterModel = "openai/gpt-4o"

// appTitle identifies this gateway in OpenRouter's attribution dashboard.
const appTitle = "Quantum Simulator"

// OpenRouterClient talks to OpenRouter's chat-completions API directly over
// HTTP. OpenRouter speaks the OpenAI wire format but adds its own
// attribution headers, so a plain client is simpler than bending an SDK.
type OpenRouterClient struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOpenRouter creates a client for OpenRouter's hosted API.
// The per-call deadline comes from the config, not from http.Client.Timeout,
// so timeouts are distinguishable from transport failures via the context.
func NewOpenRouter(cfg Config) *OpenRouterClient {
	model := cfg.Model
	if model == "" {
		model = defaultOpenRouterModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenRouterClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type openRouterChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion and returns the answer text.
// Errors wrap ErrTimeout, ErrUnavailable, or ErrMalformed; no retries.
func (c *OpenRouterClient) Complete(ctx context.Context, question, summary, referer string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody, err := json.Marshal(openRouterChatRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: systemPrompt(summary)},
			{Role: "user", Content: question},
		},
		MaxTokens:   maxAnswerTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("openrouter: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", appTitle)
	if referer != "" {
		req.Header.Set("HTTP-Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var result openRouterChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The body can stall past the deadline even after a 2xx header.
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w reading response", ErrTimeout)
		}
		return "", fmt.Errorf("%w: decode body: %v", ErrMalformed, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no completion choices", ErrMalformed)
	}
	return result.Choices[0].Message.Content, nil
}
