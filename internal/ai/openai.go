package ai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check.
var _ Generator = (*OpenAIProvider)(nil)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements Generator with the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAIProvider. An empty model selects
// gpt-4o-mini.
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIProvider{client: &client, model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// GenerateText sends prompt as a single user message.
func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt, modelHint string) (string, error) {
	model := p.model
	if modelHint != "" {
		model = modelHint
	}

	slog.Debug("calling OpenAI API", "model", model)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", &GenerationError{Provider: p.Name(), Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &GenerationError{Provider: p.Name(), Err: errors.New("empty response")}
	}

	return resp.Choices[0].Message.Content, nil
}
