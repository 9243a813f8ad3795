package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// GatewayGenerator calls an Anthropic-compatible messages endpoint. The
// ai-gateway provider is the same wire protocol behind a different base URL.
type GatewayGenerator struct {
	client anthropic.Client
	model  string
}

// NewGatewayGenerator builds a generator for the configured provider.
// baseURL is optional; empty means the provider's default endpoint.
func NewGatewayGenerator(apiKey, baseURL, model string) *GatewayGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &GatewayGenerator{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// GenerateText sends one request and concatenates the text blocks of the
// reply. Non-text blocks are ignored.
func (g *GatewayGenerator) GenerateText(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
