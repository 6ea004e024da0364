package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loops-assistant/internal/domain"
)

// StatusError is returned for non-2xx responses that carry no reply.
type StatusError struct {
	StatusCode int
	Code       string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("widget: unexpected status %d (%s)", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("widget: unexpected status %d", e.StatusCode)
}

// Client talks to POST /api/chat.
type Client struct {
	url        string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(serverURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if base == "" {
		return nil, errors.New("widget: server URL must not be empty")
	}
	c := &Client{
		url:        base + "/api/chat",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Chat returns the decoded body whenever it carries a reply, whatever the
// status. Error bodies such as "Message required" are shown to the visitor.
func (c *Client) Chat(ctx context.Context, in domain.ChatRequest) (domain.ChatResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("widget: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("widget: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("widget: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("widget: read response body: %w", err)
	}
	var out domain.ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("widget: decode response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if out.Reply == "" {
			return domain.ChatResponse{}, &StatusError{StatusCode: res.StatusCode, Code: out.Error}
		}
		// Error replies never steer the contact flow.
		out.Fallback, out.Stop = false, false
	}
	return out, nil
}
