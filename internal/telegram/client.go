// ABOUTME: Minimal Telegram Bot API client: sendMessage, chat actions, MarkdownV2.
// ABOUTME: Hand-rolled on net/http; the bot needs three POST endpoints, nothing more.

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// sendMessageRequest is the JSON body for the sendMessage method.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// chatActionRequest is the JSON body for the sendChatAction method.
type chatActionRequest struct {
	ChatID string `json:"chat_id"`
	Action string `json:"action"`
}

// apiResponse is the Bot API envelope; Description is set when ok is false.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Client calls the Telegram Bot API for one bot token. A client with an
// empty token reports itself unconfigured and fails every call.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIBase points the client at a different API host, used by tests.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		c.apiBase = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Bot API client. An empty token is allowed and yields
// an unconfigured client.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has a bot token.
func (c *Client) Configured() bool {
	return c.token != ""
}

// SendMessage sends plain text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
}

// SendMarkdown sends MarkdownV2-formatted text to a chat. Interpolated user
// data must already be escaped with EscapeMarkdown.
func (c *Client) SendMarkdown(ctx context.Context, chatID, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "MarkdownV2"})
}

// SendChatAction signals a status indicator such as "typing" to a chat.
func (c *Client) SendChatAction(ctx context.Context, chatID, action string) error {
	return c.call(ctx, "sendChatAction", chatActionRequest{ChatID: chatID, Action: action})
}

// call POSTs a JSON body to a Bot API method and checks the envelope.
func (c *Client) call(ctx context.Context, method string, payload any) error {
	if !c.Configured() {
		return fmt.Errorf("telegram: bot token not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("telegram: %s returned status %d with unreadable body", method, resp.StatusCode)
	}
	if !envelope.OK {
		if envelope.Description != "" {
			return fmt.Errorf("telegram: %s rejected: %s", method, envelope.Description)
		}
		return fmt.Errorf("telegram: %s rejected with status %d", method, resp.StatusCode)
	}
	return nil
}

// markdownReserved are the characters MarkdownV2 requires escaping in text.
const markdownReserved = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdown escapes MarkdownV2 reserved characters so user-controlled
// text cannot break or inject formatting in outbound messages.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
