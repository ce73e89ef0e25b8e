// ABOUTME: HTTP client for an OpenAI-compatible chat completions endpoint.
// ABOUTME: Supports whole-response and incremental streaming completion modes.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	// Fixed sampling parameters; retry and tuning policy belong to callers.
	temperature = 0.7
	maxTokens   = 500
)

// chatRequest is the minimal request shape for the chat completions endpoint.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream,omitempty"`
}

// chatResponse is the minimal whole-response shape.
type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// errorResponse is the provider's error envelope on non-2xx responses.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls an OpenAI-compatible chat completions API. The zero-value
// client is not usable; construct with New. A client with an empty API key
// reports itself unconfigured and fails every call with ErrNotConfigured.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a completion client. An empty apiKey is allowed and yields an
// unconfigured client (see Configured).
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		// No overall timeout: streaming responses stay open for the
		// duration of one completion. Cancellation comes from the
		// request context.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Complete sends the messages and returns the full generated reply text.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.send(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices in response")
	}
	return payload.Choices[0].Message.Content, nil
}

// CompleteStream sends the messages with streaming enabled and returns a
// Stream over the incremental frames. The stream is finite and not
// restartable; issue a new call to retry. The caller must Close it.
func (c *Client) CompleteStream(ctx context.Context, messages []Message) (*Stream, error) {
	resp, err := c.send(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

// send issues the completion request and returns the response with a 2xx
// status. Any other outcome is converted into the client's error taxonomy
// and the body is consumed and closed.
func (c *Client) send(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: provider unreachable: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    providerErrorMessage(raw),
		}
	}
	return resp, nil
}

// providerErrorMessage extracts the provider's error description from a
// non-2xx response body, returning "" when none can be parsed.
func providerErrorMessage(raw []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}
