package promptgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dao-ai/builder/pkg/logger"
)

// Client calls a chat-completions endpoint to draft prompts for the entities
// being authored. Failures surface synchronously to the caller; there is no
// retry and a failed generation never touches the configuration.
type Client struct {
	http     *resty.Client
	endpoint string
	model    string
}

// NewClient builds a prompt-assist client. A nil resty client gets a default
// one; token may be empty for unauthenticated endpoints.
func NewClient(endpoint, token, model string, client *resty.Client) *Client {
	if client == nil {
		client = resty.New()
	}
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{http: client, endpoint: endpoint, model: model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one system+user exchange and returns the trimmed completion.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("no assist endpoint configured")
	}
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("assist endpoint request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("assist endpoint returned status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("assist endpoint returned no content")
	}
	logger.FromContext(ctx).Debug("prompt generated", "chars", len(out.Choices[0].Message.Content))
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
