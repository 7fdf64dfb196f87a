package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// categoryDescriptions describes the standard categories to the classifier.
var categoryDescriptions = map[string]string{
	"general":       "Breaking news, major events and stories that fit no specific category",
	"business":      "Companies, markets, the economy, finance and trade",
	"entertainment": "Film, television, music, celebrities and the arts",
	"health":        "Medicine, public health, healthcare policy and wellness",
	"science":       "Research, discoveries, space and the environment",
	"sports":        "Games, athletes, leagues and tournaments",
	"technology":    "Software, hardware, the internet and technology companies",
	"politics":      "Government, elections, legislation and political figures",
	"world":         "International affairs and events outside the United States",
}

// ClassifyEntry is one item in a classification prompt. Index is the line
// number the model must echo back.
type ClassifyEntry struct {
	Index   int
	Title   string
	Content string
}

// maxClassifyContent caps the body text shown per item.
const maxClassifyContent = 300

// ClassificationPrompt asks for one "index: category" line per entry using
// only the given categories, with "general" as the fallback.
func ClassificationPrompt(entries []ClassifyEntry, categories []string) string {
	var b strings.Builder
	b.WriteString("You are a news categorization expert. Classify each news article into the most appropriate category.\n\n")
	b.WriteString("AVAILABLE CATEGORIES (use exactly these names):\n")

	for _, cat := range categories {
		desc, ok := categoryDescriptions[cat]
		if !ok {
			desc = fmt.Sprintf("Content specifically related to %s topics", cat)
		}
		fmt.Fprintf(&b, "- %s: %s\n", cat, desc)
	}

	b.WriteString("\nCLASSIFICATION RULES:\n")
	b.WriteString("1. Classify every article using ONLY the categories listed above.\n")
	b.WriteString("2. If an article does not clearly fit any listed category, assign it to 'general'.\n")
	b.WriteString("3. Use the exact lowercase category names.\n\n")

	b.WriteString("ARTICLES TO CLASSIFY:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%d: %s\n", e.Index, e.Title)
		if content := truncateRunes(e.Content, maxClassifyContent); content != "" {
			fmt.Fprintf(&b, "Content: %s\n", content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Respond with one line per article in the form \"index: category\" and nothing else.\n")
	b.WriteString("Example:\n0: technology\n1: general\n")
	return b.String()
}

// LocalRankingPrompt asks for the n most locally relevant headlines, one per
// line.
func LocalRankingPrompt(location string, titles []string, n int) string {
	if location == "" {
		location = "your local area"
	}
	return fmt.Sprintf(
		"From this list of local news headlines for %s, select the %d most important and relevant LOCAL news stories. "+
			"Return only the selected headlines, one per line, without numbering or additional text:\n\n%s",
		location, n, strings.Join(titles, "\n"))
}

// ScriptStory is one selected item handed to the script writer.
type ScriptStory struct {
	Title  string
	Body   string
	Source string
	URL    string
}

// ScriptPromptInput parameterizes BriefingScriptPrompt.
type ScriptPromptInput struct {
	Minutes     string
	TargetWords int
	Greeting    string
	Closing     string
	Stories     []ScriptStory
}

// BriefingScriptPrompt builds the prompt for a spoken briefing that covers
// only the given stories and ends with the exact closing line.
func BriefingScriptPrompt(in ScriptPromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a news briefing script for about %s minutes of audio (approximately %d words).\n\n", in.Minutes, in.TargetWords)
	fmt.Fprintf(&b, "Start with '%s Here are today's top stories.' and end with '%s'\n\n", in.Greeting, in.Closing)

	b.WriteString("RULES:\n")
	b.WriteString("1. Use ONLY the stories listed below. Do not mention any outlet that is not listed.\n")
	b.WriteString("2. Do not invent quotes, names, dates or events. Expand only with general context.\n")
	b.WriteString("3. Plain text in a natural news anchor style. No headings, lists or markdown.\n")
	b.WriteString("4. Always finish the final sentence.\n\n")

	b.WriteString("STORIES:\n\n")
	for i, s := range in.Stories {
		fmt.Fprintf(&b, "Story %d:\n", i+1)
		fmt.Fprintf(&b, "Headline: %s\n", s.Title)
		if s.Body != "" {
			fmt.Fprintf(&b, "Description: %s\n", s.Body)
		}
		fmt.Fprintf(&b, "Source: %s\n", s.Source)
		if s.URL != "" {
			fmt.Fprintf(&b, "URL: %s\n", s.URL)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "The final text of the script must be exactly: '%s'\n", in.Closing)
	return b.String()
}

var listNumberRe = regexp.MustCompile(`^\d+[.)]\s*`)

// CleanLines splits a model response into trimmed non-empty lines with list
// markers and surrounding quotes removed.
func CleanLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = listNumberRe.ReplaceAllString(line, "")
		line = strings.Trim(line, "\"'")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
