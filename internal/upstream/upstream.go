// Package upstream calls the external chat-completion service that answers
// the gateway's questions.
//
// Two providers implement the same Completer contract: a hand-rolled
// OpenRouter client (the default) and one built on the go-openai SDK.
// Whatever goes wrong, callers see exactly one of three sentinel errors so
// the HTTP layer can map failures to stable status codes with errors.Is.
package upstream

import (
	"context"
	"errors"
	"time"
)

// Classified failures. Every Complete error wraps exactly one of these.
var (
	// ErrTimeout: the call exceeded its time budget.
	ErrTimeout = errors.New("upstream: request timed out")
	// ErrUnavailable: transport failure or a non-2xx response.
	ErrUnavailable = errors.New("upstream: service unavailable")
	// ErrMalformed: a 2xx response whose body carried no usable answer.
	ErrMalformed = errors.New("upstream: malformed response")
)

// DefaultTimeout bounds a single completion call end to end.
const DefaultTimeout = 30 * time.Second

// Generation limits shared by all providers: answers stay short and
// reasonably deterministic.
const (
	maxAnswerTokens   = 500
	answerTemperature = 0.7
)

// Completer produces an answer to a validated question, given the digest of
// stored simulation data as context. referer identifies the calling site for
// providers that attribute traffic (OpenRouter); others ignore it.
//
// Implementations make exactly one attempt. Retry policy, if any, belongs to
// the caller.
type Completer interface {
	Complete(ctx context.Context, question, summary, referer string) (string, error)
}

// Config holds the settings shared by both providers. Zero values fall back
// to provider defaults.
type Config struct {
	APIKey  string
	Model   string        // empty: provider default model
	BaseURL string        // empty: provider default endpoint; override for tests or self-hosted gateways
	Timeout time.Duration // empty: DefaultTimeout
}

// systemPrompt builds the persona instruction with the data digest
// interpolated. The question travels as a separate user message so the model
// cannot mistake untrusted text for instructions embedded here.
func systemPrompt(summary string) string {
	return "You are a helpful quantum physics professor. Explain concepts clearly " +
		"with practical examples. Keep responses concise but informative.\n\n" +
		summary + "\n\n" +
		"Focus on practical applications and relate answers to simulation data when relevant. " +
		"If asked about topics outside quantum physics, politely redirect to quantum topics."
}
