package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/hoanghai1803/daybrief/internal/ai"
	"github.com/hoanghai1803/daybrief/internal/models"
)

// wordsPerMinute is the speaking rate used for duration estimates.
const wordsPerMinute = 150

var targetWords = map[models.DurationBucket]int{
	models.Duration1To3:   450,
	models.Duration3To5:   1200,
	models.Duration5To10:  2250,
	models.Duration10To15: 3750,
	models.Duration15To20: 5250,
	models.Duration20To30: 7500,
}

// TargetWords returns the script length goal for a duration bucket.
func TargetWords(d models.DurationBucket) int {
	if n, ok := targetWords[d]; ok {
		return n
	}
	return targetWords[models.Duration5To10]
}

// Greeting returns the opening line for the hour of day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning."
	case hour >= 12 && hour < 17:
		return "Good afternoon."
	case hour >= 17 && hour < 22:
		return "Good evening."
	default:
		// Late night keeps the evening greeting; only the sign-off changes.
		return "Good evening."
	}
}

// Closing returns the sign-off line for the hour of day.
func Closing(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "That's your morning news update. We'll be back with more throughout the day."
	case hour >= 12 && hour < 17:
		return "That concludes your afternoon news briefing. Stay informed, and we'll see you later."
	case hour >= 17 && hour < 22:
		return "That's all for your evening news update. Have a great rest of your evening."
	default:
		return "That wraps up tonight's news. Stay safe, and we'll catch you tomorrow."
	}
}

// EnsureClosing makes script end with closing. A trailing unfinished
// sentence is cut before the closing is appended.
func EnsureClosing(script, closing string) string {
	script = strings.TrimSpace(script)
	if strings.HasSuffix(script, closing) {
		return script
	}
	if i := strings.LastIndex(script, "."); i >= 0 && i < len(script)-1 {
		script = strings.TrimSpace(script[:i+1])
	}
	if script == "" {
		return closing
	}
	return script + "\n\n" + closing
}

// SpeakingMinutes estimates how long text takes to read aloud, rounded up.
// Empty text is zero minutes.
func SpeakingMinutes(text string) int {
	words := countWords(text)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// countWords counts words separated by whitespace or punctuation.
func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsSpace(r) || strings.ContainsRune(".,;:!?\"()[]{}—–", r) {
			if inWord {
				count++
				inWord = false
			}
		} else {
			inWord = true
		}
	}
	if inWord {
		count++
	}
	return count
}

// WriteScript asks gen for a spoken briefing over items and repairs the
// closing.
func WriteScript(ctx context.Context, gen ai.Generator, items []models.ContentItem, d models.DurationBucket, now time.Time, modelHint string) (string, error) {
	greeting, closing := Greeting(now.Hour()), Closing(now.Hour())

	stories := make([]ai.ScriptStory, len(items))
	for i, it := range items {
		stories[i] = ai.ScriptStory{Title: it.Title, Body: it.Body, Source: it.Source, URL: it.URL}
	}
	minutes := string(d)
	if minutes == "" {
		minutes = string(models.Duration5To10)
	}

	prompt := ai.BriefingScriptPrompt(ai.ScriptPromptInput{
		Minutes:     minutes,
		TargetWords: TargetWords(d),
		Greeting:    greeting,
		Closing:     closing,
		Stories:     stories,
	})
	text, err := gen.GenerateText(ctx, prompt, modelHint)
	if err != nil {
		return "", fmt.Errorf("generating briefing script: %w", err)
	}
	return EnsureClosing(text, closing), nil
}
