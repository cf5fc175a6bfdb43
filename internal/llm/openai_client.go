package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	simerrors "allersim/internal/errors"
	"allersim/internal/logging"
)

// OpenAI API compatible client.
type openaiClient struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	headers    map[string]string
}

// NewOpenAIClient constructs a client that speaks the OpenAI-compatible
// chat completions API using the provided configuration.
func NewOpenAIClient(config Config) (Client, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &openaiClient{
		model:      config.Model,
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger("OpenAIClient"),
		headers:    config.Headers,
	}, nil
}

func (c *openaiClient) Model() string {
	return c.model
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *openaiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	oaiReq := openaiRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	for _, m := range req.Messages {
		oaiReq.Messages = append(oaiReq.Messages, openaiMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("POST %s model=%s messages=%d", endpoint, c.model, len(oaiReq.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, simerrors.NewTransient(fmt.Errorf("llm request failed: %w", err), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, simerrors.NewTransient(fmt.Errorf("read response: %w", err), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("llm returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		return nil, simerrors.ClassifyHTTPStatus(resp.StatusCode,
			fmt.Errorf("llm status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var oaiResp openaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, simerrors.NewTransient(fmt.Errorf("decode response: %w", err), resp.StatusCode)
	}
	if oaiResp.Error != nil {
		return nil, simerrors.NewPermanent(fmt.Errorf("llm error: %s", oaiResp.Error.Message), resp.StatusCode)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, simerrors.NewTransient(fmt.Errorf("llm returned no choices"), resp.StatusCode)
	}

	content := oaiResp.Choices[0].Message.Content
	c.logger.Debug("llm response: %s", truncate(content, 200))

	model := oaiResp.Model
	if model == "" {
		model = c.model
	}
	return &CompletionResponse{Content: content, Model: model}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
