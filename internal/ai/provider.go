// Package ai wraps the text generation services used for classification,
// local-news ranking and script writing.
package ai

import (
	"context"
	"fmt"
)

// Generator produces text from a single prompt.
type Generator interface {
	// Name returns the provider name ("anthropic", "openai", "gemini").
	Name() string

	// GenerateText sends prompt and returns the model's text. A non-empty
	// modelHint overrides the configured model.
	GenerateText(ctx context.Context, prompt, modelHint string) (string, error)
}

// ProviderConfig holds the configuration needed to create a Generator.
type ProviderConfig struct {
	Provider string // "anthropic" | "openai" | "gemini"
	APIKey   string
	Model    string
}

// GenerationError reports a failed generation call.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewProvider creates the Generator named by cfg.Provider.
func NewProvider(cfg ProviderConfig) (Generator, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	case "gemini":
		return NewGeminiProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
