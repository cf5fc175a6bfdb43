package llm

import (
	"context"

	simerrors "allersim/internal/errors"
	"allersim/internal/logging"
)

type retryClient struct {
	inner  Client
	config simerrors.RetryConfig
	logger logging.Logger
}

// NewRetryClient wraps a client with transient-error retry. Permanent
// errors pass through immediately so the caller can fall back to the local
// deterministic path without burning the turn's latency budget.
func NewRetryClient(inner Client, config simerrors.RetryConfig) Client {
	return &retryClient{
		inner:  inner,
		config: config,
		logger: logging.NewComponentLogger("RetryClient"),
	}
}

func (c *retryClient) Model() string {
	return c.inner.Model()
}

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return simerrors.RetryWithResultAndLog(ctx, c.config, func(ctx context.Context) (*CompletionResponse, error) {
		return c.inner.Complete(ctx, req)
	}, c.logger)
}
