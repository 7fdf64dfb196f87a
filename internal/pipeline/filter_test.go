package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/sources"
)

func at(t time.Time) *time.Time { return &t }

func titles(items []models.ContentItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestFilterFreshBoundary(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	items := []models.ContentItem{
		{Title: "boundary", PublishedAt: at(now.Add(-window))},
		{Title: "one second over", PublishedAt: at(now.Add(-window - time.Second))},
		{Title: "recent", PublishedAt: at(now.Add(-time.Hour))},
		{Title: "undated"},
		{Title: "future", PublishedAt: at(now.Add(time.Minute))},
	}

	got := titles(FilterFresh(items, now, window))
	want := "boundary,recent,future"
	if strings.Join(got, ",") != want {
		t.Errorf("FilterFresh = %v, want %s", got, want)
	}
}

func TestFilterFreshCustomWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	items := []models.ContentItem{
		{Title: "six hours", PublishedAt: at(now.Add(-6 * time.Hour))},
		{Title: "two hours", PublishedAt: at(now.Add(-2 * time.Hour))},
	}
	got := FilterFresh(items, now, 3*time.Hour)
	if len(got) != 1 || got[0].Title != "two hours" {
		t.Errorf("FilterFresh = %v", titles(got))
	}
	// A zero window falls back to the default.
	if got := FilterFresh(items, now, 0); len(got) != 2 {
		t.Errorf("expected default window to keep both, got %v", titles(got))
	}
}

func TestDedupe(t *testing.T) {
	items := []models.ContentItem{
		{Title: "Fed holds rates steady", URL: "https://www.example.com/a/"},
		{Title: "Another headline", URL: "https://example.com/a"},
		{Title: "Fed Holds Rates Steady!", URL: "https://other.example/b"},
		{Title: "Weather", URL: ""},
		{Title: "Unique story", URL: "https://example.com/c?utm=1"},
	}
	got := titles(Dedupe(items))
	want := "Fed holds rates steady,Weather,Unique story"
	if strings.Join(got, ",") != want {
		t.Errorf("Dedupe = %v, want %s", got, want)
	}
}

func TestFilterCoveredTopics(t *testing.T) {
	covered := []models.Topic{
		{Title: "Council passes budget", URL: "https://news.example/budget"},
		{Title: "Local Weather Update"},
	}
	items := []models.ContentItem{
		{Title: "Different title", URL: "https://news.example/budget"},
		{Title: "council passes budget.", URL: "https://elsewhere.example/1"},
		{Title: "Local Weather Update", Category: models.CategoryWeather},
		{Title: "Fresh story", URL: "https://news.example/new"},
	}
	got := titles(FilterCoveredTopics(items, covered))
	want := "Local Weather Update,Fresh story"
	if strings.Join(got, ",") != want {
		t.Errorf("FilterCoveredTopics = %v, want %s", got, want)
	}
}

func TestFilterSubstance(t *testing.T) {
	long := strings.Repeat("x", 60)
	items := []models.ContentItem{
		{Title: "Short", Body: "tiny"},
		{Title: "A headline that is long enough on its own to pass muster", Body: "too short"},
		{Title: "A headline that is long enough on its own to pass muster"},
		{Title: "Title", Body: long},
		{Body: long},
		{},
	}
	got := FilterSubstance(items, 50)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d: %v", len(got), titles(got))
	}
	if got[0].Body != "" || got[1].Title != "Title" || got[2].Title != "" {
		t.Errorf("unexpected survivors %+v", got)
	}
}

func TestAssignPriority(t *testing.T) {
	items := []models.ContentItem{
		{Title: "w", Category: models.CategoryWeather, Provider: sources.ProviderWeather, Body: "0123456789"},
		{Title: "e", Category: models.CategoryEntertainment, Provider: sources.ProviderTMDB},
		{Title: "l", Category: models.CategoryLocal, Provider: sources.ProviderLocal},
		{Title: "abcd", Category: "technology", Provider: sources.ProviderNYT, Body: "12345678"},
		{Title: "celebrity news", Category: models.CategoryEntertainment, Provider: sources.ProviderGNews},
		{Title: "curated", Category: models.CategoryEntertainment, Provider: sources.ProviderRSS},
	}
	got := AssignPriority(items)
	wantTiers := []int{TierWeather, TierEntertainment, TierLocal, TierGeneral, TierGeneral, TierGeneral}
	for i, it := range got {
		if it.PriorityTier != wantTiers[i] {
			t.Errorf("item %d tier = %d, want %d", i, it.PriorityTier, wantTiers[i])
		}
	}
	if got[0].SubstanceScore != 10.5 || got[3].SubstanceScore != 10 {
		t.Errorf("unexpected scores %v, %v", got[0].SubstanceScore, got[3].SubstanceScore)
	}
	if items[0].PriorityTier != 0 {
		t.Error("input slice should not be modified")
	}
}

func TestSelect_LocalOutranksEntertainmentNews(t *testing.T) {
	items := AssignPriority([]models.ContentItem{
		{Title: "Celebrity gossip", Body: strings.Repeat("long body ", 40), Category: models.CategoryEntertainment, Provider: sources.ProviderGNews},
		{Title: "Council approves new park", Body: "short body text here", Category: models.CategoryLocal, Provider: sources.ProviderLocal},
	})

	got := Select(items, 1)
	if len(got) != 1 || got[0].Title != "Council approves new park" {
		t.Errorf("Select = %v, want the local story", titles(got))
	}
}
