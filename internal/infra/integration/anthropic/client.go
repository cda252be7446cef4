// Package anthropic is the Claude Messages backend for lead extraction.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

const (
	DefaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024
)

type Client struct {
	client sdk.Client
}

// NewClient disables SDK retries; extraction is a single attempt.
func NewClient(apiKey, baseURL string) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{client: sdk.NewClient(opts...)}
}

func (c *Client) Complete(ctx context.Context, req usecase.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   defaultMaxTokens,
		Temperature: sdk.Float(0),
		System:      []sdk.TextBlockParam{{Text: req.Instruction}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Input)),
		},
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", eris.New("anthropic: response has no text content")
	}
	return text, nil
}
