package ai

import (
	"context"
	"errors"
	"testing"
)

type stubGenerator struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) GenerateText(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestChain_FallsBack(t *testing.T) {
	first := &stubGenerator{name: "gemini", err: errors.New("boom")}
	second := &stubGenerator{name: "openai", text: "ok"}
	chain := NewChain(first, nil, second)

	got, err := chain.GenerateText(context.Background(), "p", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("got calls %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestChain_PreferredProviderFirst(t *testing.T) {
	first := &stubGenerator{name: "gemini", text: "from gemini"}
	second := &stubGenerator{name: "anthropic", text: "from anthropic"}
	chain := NewChain(first, second)

	got, err := chain.GenerateText(context.Background(), "p", "anthropic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from anthropic" {
		t.Errorf("got %q, want from anthropic", got)
	}
	if first.calls != 0 {
		t.Errorf("gemini should not be called, got %d calls", first.calls)
	}
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(
		&stubGenerator{name: "gemini", err: errors.New("a")},
		&stubGenerator{name: "openai", err: errors.New("b")},
	)

	_, err := chain.GenerateText(context.Background(), "p", "")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("got %v, want *GenerationError", err)
	}
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain()
	if chain.Len() != 0 {
		t.Fatalf("got len %d, want 0", chain.Len())
	}
	if _, err := chain.GenerateText(context.Background(), "p", ""); err == nil {
		t.Fatal("expected error from empty chain")
	}
}

func TestChain_Names(t *testing.T) {
	chain := NewChain(&stubGenerator{name: "gemini"}, &stubGenerator{name: "openai"})
	names := chain.Names()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openai" {
		t.Errorf("got %v", names)
	}
}
