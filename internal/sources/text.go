package sources

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	spaceRe     = regexp.MustCompile(`\s+`)
)

// cleanText strips markup from s, unescapes entities and collapses
// whitespace.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// truncateWords returns the first maxWords whitespace-delimited words of s.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ")
}

// articleText fetches an article page through the paced client and
// returns its readable text.
func (c *Client) articleText(ctx context.Context, provider, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing article url: %w", err)
	}

	body, err := c.get(ctx, provider, pageURL, http.Header{
		"Accept": {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	})
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", fmt.Errorf("readability extraction: %w", err)
	}
	return article.TextContent, nil
}

// ParseTimestamp parses the timestamp formats used by the providers. The
// second result is false when s matches none of them.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timestampPtr returns a pointer to the parsed time, or nil.
func timestampPtr(s string) *time.Time {
	t, ok := ParseTimestamp(s)
	if !ok {
		return nil
	}
	return &t
}
