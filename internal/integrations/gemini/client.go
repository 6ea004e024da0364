// Package gemini adapts the Google Generative AI SDK to the chat flow.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"loops-assistant/internal/domain"
)

type clientFactory func(ctx context.Context, opts ...option.ClientOption) (*genai.Client, error)

// Client lazily builds a genai client for the current API key and reuses it
// until the key changes.
type Client struct {
	opts      []option.ClientOption
	newClient clientFactory

	mu     sync.Mutex
	apiKey string
	client *genai.Client
}

// NewClient accepts extra SDK options, e.g. option.WithEndpoint for tests or
// proxies. The API key is supplied per call.
func NewClient(opts ...option.ClientOption) *Client {
	return &Client{opts: opts, newClient: genai.NewClient}
}

func (c *Client) Generate(ctx context.Context, apiKey string, in domain.GenerationRequest) (string, error) {
	if strings.TrimSpace(in.Model) == "" {
		return "", errors.New("gemini: model must not be empty")
	}
	gc, err := c.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}

	model := gc.GenerativeModel(in.Model)
	configureModel(model, in)

	resp, err := model.GenerateContent(ctx, genai.Text(in.User))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return responseText(resp)
}

// Close releases the underlying SDK client, if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.apiKey = ""
	return err
}

func (c *Client) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && c.apiKey == apiKey {
		return c.client, nil
	}
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}

	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.opts...)
	gc, err := c.newClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.client = gc
	c.apiKey = apiKey
	return gc, nil
}

func configureModel(m *genai.GenerativeModel, in domain.GenerationRequest) {
	m.SetTemperature(in.Temperature)
	if in.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(in.MaxOutputTokens)
	}
	if in.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(in.System)}}
	}
	if in.JSONReply {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = assistantReplySchema()
	}
}

func assistantReplySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reply":         {Type: genai.TypeString},
			"needs_contact": {Type: genai.TypeBoolean},
		},
		Required: []string{"reply", "needs_contact"},
	}
}

// responseText concatenates the text parts of the first candidate that
// finished normally.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand == nil {
		return "", errors.New("gemini: candidate has no content")
	}
	// Anything but a natural stop (max tokens, safety, recitation) leaves
	// partial or withheld text.
	switch cand.FinishReason {
	case genai.FinishReasonUnspecified, genai.FinishReasonStop:
	default:
		return "", fmt.Errorf("gemini: generation stopped early: %s", cand.FinishReason)
	}
	if cand.Content == nil {
		return "", errors.New("gemini: candidate has no content")
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: candidate has no text")
	}
	return b.String(), nil
}
