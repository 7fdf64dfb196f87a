package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Compile-time interface check.
var _ Generator = (*Chain)(nil)

// Chain tries a fixed preference order of generators and returns the first
// successful response.
type Chain struct {
	gens []Generator
}

// NewChain builds a Chain. Nil generators are skipped.
func NewChain(gens ...Generator) *Chain {
	c := &Chain{}
	for _, g := range gens {
		if g != nil {
			c.gens = append(c.gens, g)
		}
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

// Len returns the number of generators in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.gens)
}

// Names returns the provider names in preference order.
func (c *Chain) Names() []string {
	names := make([]string, 0, c.Len())
	for _, g := range c.gens {
		names = append(names, g.Name())
	}
	return names
}

// GenerateText tries each generator in order. When modelHint names a
// provider in the chain that provider goes first; the hint is never
// forwarded as a model ID.
func (c *Chain) GenerateText(ctx context.Context, prompt, modelHint string) (string, error) {
	if c.Len() == 0 {
		return "", &GenerationError{Provider: c.Name(), Err: errors.New("no generation providers configured")}
	}

	var errs []error
	for _, g := range c.ordered(modelHint) {
		text, err := g.GenerateText(ctx, prompt, "")
		if err == nil {
			return text, nil
		}
		slog.Warn("generation provider failed", "provider", g.Name(), "error", err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}
	return "", &GenerationError{Provider: c.Name(), Err: fmt.Errorf("all providers failed: %w", errors.Join(errs...))}
}

func (c *Chain) ordered(preferred string) []Generator {
	if preferred == "" {
		return c.gens
	}
	out := make([]Generator, 0, len(c.gens))
	for _, g := range c.gens {
		if g.Name() == preferred {
			out = append(out, g)
		}
	}
	for _, g := range c.gens {
		if g.Name() != preferred {
			out = append(out, g)
		}
	}
	return out
}
