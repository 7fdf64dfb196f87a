package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hoanghai1803/daybrief/internal/models"
)

// scriptedGenerator answers each prompt through respond and counts calls.
type scriptedGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	respond func(prompt string) (string, error)
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) GenerateText(_ context.Context, prompt, _ string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.respond(prompt)
}

// labelAll answers every "N: title" article line in a prompt with a
// category chosen from the title.
func labelAll(pick func(title string) string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		articles, _, _ := strings.Cut(prompt, "Respond with")
		var b strings.Builder
		for _, line := range strings.Split(articles, "\n") {
			m := classifyLineRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", m[1], pick(m[2]))
		}
		return b.String(), nil
	}
}

func TestClassifyAllowListDropsOutsideCategories(t *testing.T) {
	gen := &scriptedGenerator{respond: labelAll(func(title string) string {
		if strings.Contains(title, "Senate") {
			return "Politics"
		}
		return "technology"
	})}
	c := NewClassifier(gen, 10)

	items := []models.ContentItem{
		{Title: "Senate passes bill", Category: "general"},
		{Title: "New chip announced", Category: "general"},
	}
	got := c.Classify(context.Background(), items, []string{"technology", "general"}, "")
	if len(got) != 1 {
		t.Fatalf("expected politics item dropped, got %v", titles(got))
	}
	if got[0].Title != "New chip announced" || got[0].Category != "technology" {
		t.Errorf("unexpected item %+v", got[0])
	}
}

func TestClassifyBypassesReservedAndCurated(t *testing.T) {
	gen := &scriptedGenerator{respond: labelAll(func(string) string { return "sports" })}
	c := NewClassifier(gen, 10)

	items := []models.ContentItem{
		{Title: "Local Weather Update", Category: models.CategoryWeather},
		{Title: "Entertainment & TV Today", Category: models.CategoryEntertainment},
		{Title: "Harbor bridge reopens", Category: models.CategoryLocal},
		{Title: "Curated deep dive", Category: "science", Curated: true},
	}
	got := c.Classify(context.Background(), items, []string{"technology"}, "")
	if len(got) != 4 {
		t.Fatalf("expected all bypassed items kept, got %v", titles(got))
	}
	for i := range items {
		if got[i].Category != items[i].Category {
			t.Errorf("item %d category changed to %q", i, got[i].Category)
		}
	}
	if gen.calls != 0 {
		t.Errorf("expected no generator calls, got %d", gen.calls)
	}
}

func TestClassifyBatchesOfTen(t *testing.T) {
	gen := &scriptedGenerator{respond: labelAll(func(string) string { return "business" })}
	c := NewClassifier(gen, 0)

	var items []models.ContentItem
	for i := 0; i < 23; i++ {
		items = append(items, models.ContentItem{Title: fmt.Sprintf("Story %d", i), Category: "general"})
	}
	got := c.Classify(context.Background(), items, []string{"business"}, "")
	if gen.calls != 3 {
		t.Errorf("expected 3 batches, got %d", gen.calls)
	}
	if len(got) != 23 {
		t.Fatalf("expected 23 items, got %d", len(got))
	}
	for i, it := range got {
		if it.Title != fmt.Sprintf("Story %d", i) || it.Category != "business" {
			t.Errorf("item %d = %+v", i, it)
		}
	}
}

func TestClassifyFailedBatchPassesThrough(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "", errors.New("provider unavailable")
	}}
	c := NewClassifier(gen, 10)

	items := []models.ContentItem{
		{Title: "Unlabeled one", Category: "politics"},
		{Title: "Unlabeled two", Category: "general"},
	}
	got := c.Classify(context.Background(), items, []string{"technology"}, "")
	if len(got) != 2 || got[0].Category != "politics" {
		t.Errorf("expected batch to pass through unchanged, got %+v", got)
	}
}

func TestClassifyMissingIndexIsGeneral(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "garbage line\n1: Science.\n", nil
	}}
	c := NewClassifier(gen, 10)

	items := []models.ContentItem{
		{Title: "Unanswered item", Category: "business"},
		{Title: "Answered item", Category: "business"},
	}

	got := c.Classify(context.Background(), items, []string{"science", "general"}, "")
	if len(got) != 2 || got[0].Category != "general" || got[1].Category != "science" {
		t.Errorf("unexpected result %+v", got)
	}

	// The general fallback is dropped when general is not enabled.
	c2 := NewClassifier(gen, 10)
	got = c2.Classify(context.Background(), items, []string{"science"}, "")
	if len(got) != 1 || got[0].Title != "Answered item" {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestClassifyCachesLabels(t *testing.T) {
	gen := &scriptedGenerator{respond: labelAll(func(string) string { return "health" })}
	c := NewClassifier(gen, 10)
	items := []models.ContentItem{{Title: "Flu season peaks", Category: "general"}}

	c.Classify(context.Background(), items, []string{"health"}, "")
	got := c.Classify(context.Background(), items, []string{"health"}, "")
	if gen.calls != 1 {
		t.Errorf("expected cached second pass, got %d calls", gen.calls)
	}
	if len(got) != 1 || got[0].Category != "health" {
		t.Errorf("unexpected result %+v", got)
	}

	// A different vocabulary is a different cache entry.
	c.Classify(context.Background(), items, []string{"health", "science"}, "")
	if gen.calls != 2 {
		t.Errorf("expected a new call for a new vocabulary, got %d", gen.calls)
	}
}

func TestClassifyWithoutGenerator(t *testing.T) {
	c := NewClassifier(nil, 10)
	items := []models.ContentItem{{Title: "Anything", Category: "politics"}}
	got := c.Classify(context.Background(), items, []string{"technology"}, "")
	if len(got) != 1 || got[0].Category != "politics" {
		t.Errorf("expected pass-through, got %+v", got)
	}
}

func TestParseClassification(t *testing.T) {
	got := ParseClassification("0: Technology\n 1:business \nnot a line\n2 - sports\n3: **Health**\n")
	want := map[int]string{0: "technology", 1: "business", 3: "health"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("index %d = %q, want %q", k, got[k], v)
		}
	}
}

func TestVocabulary(t *testing.T) {
	got := vocabulary(map[string]bool{"technology": true, "weather": true, "local": true, "business": true})
	if strings.Join(got, ",") != "business,general,technology" {
		t.Errorf("vocabulary = %v", got)
	}
}
