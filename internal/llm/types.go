// Package llm hosts the external language-model collaborators: the raw
// completion client plus the semantic classifier and waiter-reply wrappers
// the conversation engine talks to. Every wrapper parses model output
// defensively; a malformed response degrades to the local deterministic
// path instead of failing the turn.
package llm

import (
	"context"
	"time"
)

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral completion request.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// CompletionResponse carries the assistant's reply text.
type CompletionResponse struct {
	Content string
	Model   string
}

// Client is the minimal contract a completion provider implements.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}

// Config configures an HTTP-based provider client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Headers    map[string]string
	MaxRetries int
}
