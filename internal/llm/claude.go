package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// claudeMaxTokens bounds the response size. Extracted profiles are small.
const claudeMaxTokens = 4096

// ClaudeClient implements Client for Anthropic Claude
type ClaudeClient struct {
	client *anthropic.Client
	config *Config
}

// NewClaudeClient creates a new Claude client
func NewClaudeClient(config *Config, apiKey string) (*ClaudeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	var opts []anthropic.ClientOption
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}

	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, opts...),
		config: config,
	}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *ClaudeClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	temperature := float32(0.1)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(modelName),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   claudeMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var parts []string
	for _, content := range resp.Content {
		if content.Text != nil {
			parts = append(parts, *content.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no response content")
	}

	return strings.Join(parts, ""), nil
}

// GenerateJSON generates JSON content using the specified model tier.
// Claude has no JSON response mode, so the output is cleaned afterwards.
func (c *ClaudeClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *ClaudeClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no resources to release.
func (c *ClaudeClient) Close() error {
	return nil
}
