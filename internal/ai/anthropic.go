package ai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Compile-time interface check.
var _ Generator = (*AnthropicProvider)(nil)

const (
	defaultAnthropicModel = "claude-haiku-4-5"
	anthropicMaxTokens    = 8192
)

// AnthropicProvider implements Generator with the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates an AnthropicProvider. An empty model selects
// claude-haiku-4-5.
func NewAnthropicProvider(apiKey, model string, opts ...option.RequestOption) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicProvider{client: &client, model: model}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// GenerateText sends prompt as a single user message.
func (p *AnthropicProvider) GenerateText(ctx context.Context, prompt, modelHint string) (string, error) {
	model := p.model
	if modelHint != "" {
		model = modelHint
	}

	slog.Debug("calling Anthropic API", "model", model)

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &GenerationError{Provider: p.Name(), Err: err}
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return "", &GenerationError{Provider: p.Name(), Err: errors.New("empty response")}
	}

	return resp.Content[0].Text, nil
}
