package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
)

func TestGreetingAndClosing(t *testing.T) {
	tests := []struct {
		hour     int
		greeting string
		closing  string
	}{
		{5, "Good morning.", "That's your morning news update."},
		{11, "Good morning.", "That's your morning news update."},
		{12, "Good afternoon.", "That concludes your afternoon news briefing."},
		{16, "Good afternoon.", "That concludes your afternoon news briefing."},
		{17, "Good evening.", "That's all for your evening news update."},
		{21, "Good evening.", "That's all for your evening news update."},
		{22, "Good evening.", "That wraps up tonight's news."},
		{3, "Good evening.", "That wraps up tonight's news."},
	}
	for _, tt := range tests {
		if got := Greeting(tt.hour); got != tt.greeting {
			t.Errorf("Greeting(%d) = %q, want %q", tt.hour, got, tt.greeting)
		}
		if got := Closing(tt.hour); !strings.HasPrefix(got, tt.closing) {
			t.Errorf("Closing(%d) = %q, want prefix %q", tt.hour, got, tt.closing)
		}
	}
}

func TestEnsureClosing(t *testing.T) {
	closing := "That's all."
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"already closed", "Story one. That's all.", "Story one. That's all."},
		{"complete sentences", "Story one. Story two.", "Story one. Story two.\n\nThat's all."},
		{"cut off", "Story one. Story two is about", "Story one.\n\nThat's all."},
		{"no sentence end", "Just words", "Just words\n\nThat's all."},
		{"empty", "", "That's all."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureClosing(tt.script, closing); got != tt.want {
				t.Errorf("EnsureClosing = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpeakingMinutes(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"empty", 0, 0},
		{"short", 10, 1},
		{"exactly one minute", 150, 1},
		{"just over", 151, 2},
		{"five minutes", 750, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.TrimSpace(strings.Repeat("word ", tt.words))
			if got := SpeakingMinutes(text); got != tt.want {
				t.Errorf("SpeakingMinutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	if got := countWords("Hello, world! It's a test."); got != 5 {
		t.Errorf("countWords = %d, want 5", got)
	}
}

func TestTargetWords(t *testing.T) {
	if TargetWords(models.Duration1To3) != 450 || TargetWords(models.Duration20To30) != 7500 {
		t.Error("unexpected table values")
	}
	if TargetWords("") != 2250 {
		t.Error("unknown bucket should default to the 5-10 minute target")
	}
}

func TestWriteScript(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "Good morning. Here are today's top stories. Markets rose. And then the", nil
	}}
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	items := []models.ContentItem{{Title: "Markets rise", Body: "Stocks rallied on earnings", Source: "Reuters"}}

	got, err := WriteScript(context.Background(), gen, items, models.Duration1To3, now, "")
	if err != nil {
		t.Fatalf("WriteScript: %v", err)
	}
	if !strings.HasSuffix(got, Closing(8)) || strings.Contains(got, "And then the") {
		t.Errorf("unexpected script %q", got)
	}
	if !strings.Contains(gen.prompts[0], "approximately 450 words") || !strings.Contains(gen.prompts[0], "Markets rise") {
		t.Errorf("unexpected prompt %q", gen.prompts[0])
	}
}
