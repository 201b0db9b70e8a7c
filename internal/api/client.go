// Package api talks to the SOP assistant backend: the QA endpoint and the
// feedback log. Both are external collaborators; this package only moves
// bytes and never holds conversation state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sopchat/internal/chat"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000"
	defaultTimeout = 60 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom backend base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for best-effort paths.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is the HTTP client for the assistant backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask submits one question to the QA backend.
func (c *Client) Ask(ctx context.Context, question string) (chat.Answer, error) {
	payload := struct {
		Question string `json:"question"`
	}{Question: question}

	var ans chat.Answer
	if err := c.post(ctx, "/ask", payload, &ans); err != nil {
		return chat.Answer{}, err
	}
	return ans, nil
}

// SaveInteraction persists one feedback transition. Callers treat this as
// fire and forget: failures are logged at debug level and returned only so
// tests can observe them; nothing retries and nothing rolls back.
func (c *Client) SaveInteraction(ctx context.Context, in chat.Interaction) error {
	if in.Sources == nil {
		in.Sources = []string{}
	}
	if in.Citations == nil {
		in.Citations = []chat.Citation{}
	}
	if err := c.post(ctx, "/save-interaction", in, nil); err != nil {
		c.logger.Debug("save interaction dropped", "err", err)
		return err
	}
	return nil
}

// FeedbackLog fetches the full feedback log for the analytics view.
func (c *Client) FeedbackLog(ctx context.Context) ([]chat.FeedbackRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/feedback", nil)
	if err != nil {
		return nil, fmt.Errorf("build feedback request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feedback log: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feedback log: unexpected status %d", resp.StatusCode)
	}

	var records []chat.FeedbackRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode feedback log: %w", err)
	}
	return records, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
