package pipeline

import (
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/sources"
)

const (
	// DefaultMaxAge is the freshness window when none is configured.
	DefaultMaxAge = 24 * time.Hour
	// DefaultMinChars is the minimum combined title and body length.
	DefaultMinChars = 50
	// minBodyChars is the shortest body that is not a bare headline.
	minBodyChars = 20
)

// Priority tiers, highest first.
const (
	TierWeather       = 1
	TierEntertainment = 2
	TierLocal         = 3
	TierGeneral       = 4
)

// FilterFresh drops items with no timestamp or older than maxAge at now.
// An item exactly maxAge old is kept.
func FilterFresh(items []models.ContentItem, now time.Time, maxAge time.Duration) []models.ContentItem {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	out := make([]models.ContentItem, 0, len(items))
	for _, it := range items {
		if it.PublishedAt == nil {
			continue
		}
		if now.Sub(*it.PublishedAt) > maxAge {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Dedupe keeps the first item for each normalized URL and each normalized
// title.
func Dedupe(items []models.ContentItem) []models.ContentItem {
	seenURL := make(map[string]bool)
	seenTitle := make(map[string]bool)
	out := make([]models.ContentItem, 0, len(items))
	for _, it := range items {
		u := normalizeURL(it.URL)
		if u != "" && seenURL[u] {
			continue
		}
		t := normalizeTitle(it.Title)
		if t != "" && seenTitle[t] {
			continue
		}
		if u != "" {
			seenURL[u] = true
		}
		if t != "" {
			seenTitle[t] = true
		}
		out = append(out, it)
	}
	return out
}

// FilterCoveredTopics drops items whose URL or title matches a topic
// already covered. Items without a URL are synthesized reports and are
// always kept.
func FilterCoveredTopics(items []models.ContentItem, covered []models.Topic) []models.ContentItem {
	if len(covered) == 0 {
		return items
	}
	urls := make(map[string]bool, len(covered))
	titles := make(map[string]bool, len(covered))
	for _, tp := range covered {
		if u := normalizeURL(tp.URL); u != "" {
			urls[u] = true
		}
		if t := normalizeTitle(tp.Title); t != "" {
			titles[t] = true
		}
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, it := range items {
		u := normalizeURL(it.URL)
		if u != "" && (urls[u] || titles[normalizeTitle(it.Title)]) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FilterSubstance drops items too thin to build content from: a combined
// title and body shorter than minChars, or a body under 20 characters next
// to a title.
func FilterSubstance(items []models.ContentItem, minChars int) []models.ContentItem {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	out := make([]models.ContentItem, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		body := strings.TrimSpace(it.Body)
		if title == "" && body == "" {
			continue
		}
		if utf8.RuneCountInString(title)+utf8.RuneCountInString(body) < minChars {
			continue
		}
		if body != "" && title != "" && utf8.RuneCountInString(body) < minBodyChars {
			continue
		}
		out = append(out, it)
	}
	return out
}

// TierFor returns the priority tier for an item, decided by the adapter
// that produced it. A news article about entertainment is still general
// news; only the TV and film summary ranks as entertainment.
func TierFor(it models.ContentItem) int {
	switch it.Provider {
	case sources.ProviderWeather:
		return TierWeather
	case sources.ProviderTMDB:
		return TierEntertainment
	case sources.ProviderLocal:
		return TierLocal
	}
	return TierGeneral
}

// SubstanceScore is body length plus half the title length.
func SubstanceScore(it models.ContentItem) float64 {
	return float64(utf8.RuneCountInString(it.Body)) + 0.5*float64(utf8.RuneCountInString(it.Title))
}

// AssignPriority sets PriorityTier and SubstanceScore on every item.
func AssignPriority(items []models.ContentItem) []models.ContentItem {
	out := make([]models.ContentItem, len(items))
	for i, it := range items {
		it.PriorityTier = TierFor(it)
		it.SubstanceScore = SubstanceScore(it)
		out[i] = it
	}
	return out
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host + strings.TrimRight(u.EscapedPath(), "/")
}

func normalizeTitle(title string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}
