package sources

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hoanghai1803/daybrief/internal/ai"
	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/mmcdole/gofeed"
)

const (
	localFeedBaseURL = "https://news.google.com/rss/search"

	localRankCandidates = 20
	localPickCount      = 5
	localFallbackCount  = 3
	localMinTitleLen    = 20
	localWeatherMaxLen  = 25
	localSourceName     = "Local News"
	localMaxWords       = 600
)

var zipCities = map[string]string{
	"10001": "New York",
	"90210": "Beverly Hills",
	"60601": "Chicago",
	"77001": "Houston",
	"85001": "Phoenix",
	"19101": "Philadelphia",
	"78701": "Austin",
	"94101": "San Francisco",
	"98101": "Seattle",
	"80201": "Denver",
	"33101": "Miami",
	"30301": "Atlanta",
	"02101": "Boston",
	"89101": "Las Vegas",
	"20001": "Washington DC",
	"28411": "Wilmington",
}

var (
	outletSuffixRe = regexp.MustCompile(`\s+-\s+[A-Za-z\s]+(News|Star|Times|Post|Herald|Gazette)[A-Za-z\s]*$`)
	relativeAgeRe  = regexp.MustCompile(`(?i)\b((\d+|a|one|two|three|four|five|six|seven|eight|nine|ten|several|many)\s+years?\s+ago|last\s+year|previous\s+year)\b`)
	yearRe         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// CityForZip returns the city name for a known ZIP code. Unknown codes are
// returned as-is so the search still has a locality.
func CityForZip(zip string) string {
	if city, ok := zipCities[zip]; ok {
		return city
	}
	return zip
}

// LocalNews discovers local headlines from a geographic news search feed
// and asks a generator to pick the most relevant ones.
type LocalNews struct {
	client  *Client
	ranker  ai.Generator
	baseURL string
	now     func() time.Time

	// Enrich replaces headline-only bodies with readable article text.
	Enrich        bool
	EnrichTimeout time.Duration
}

var _ Source = (*LocalNews)(nil)

// NewLocalNews creates a local news adapter. ranker may be nil, in which
// case the first candidates are used unranked.
func NewLocalNews(client *Client, ranker ai.Generator) *LocalNews {
	return &LocalNews{
		client:        client,
		ranker:        ranker,
		baseURL:       localFeedBaseURL,
		now:           time.Now,
		EnrichTimeout: 10 * time.Second,
	}
}

func (l *LocalNews) Name() string     { return ProviderLocal }
func (l *LocalNews) Configured() bool { return true }

type localCandidate struct {
	title     string
	link      string
	published *time.Time
}

func (l *LocalNews) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	if req.ZipCode == "" {
		return []models.ContentItem{}, nil
	}
	city := CityForZip(req.ZipCode)

	q := url.Values{}
	q.Set("q", city+" local news")
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")

	feed, err := l.client.getFeed(ctx, l.Name(), l.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	now := l.now()
	candidates := filterLocalCandidates(feed.Items, now, req.MaxAge)
	if len(candidates) == 0 {
		return []models.ContentItem{}, nil
	}

	picked := l.rank(ctx, city, candidates, req.ModelHint)

	items := make([]models.ContentItem, 0, len(picked))
	for _, c := range picked {
		body := c.title
		if l.Enrich && c.link != "" {
			if text := l.enrich(ctx, c.link); text != "" {
				body = text
			}
		}
		published := c.published
		if published == nil {
			t := now
			published = &t
		}
		items = append(items, models.ContentItem{
			Title:       c.title,
			Body:        body,
			Category:    models.CategoryLocal,
			Source:      localSourceName,
			URL:         c.link,
			PublishedAt: published,
			Provider:    l.Name(),
		})
	}
	return items, nil
}

// enrich returns the readable text of the article at link, or "" when the
// page cannot be fetched or has no text. Each page gets its own deadline
// under ctx.
func (l *LocalNews) enrich(ctx context.Context, link string) string {
	if ctx.Err() != nil {
		return ""
	}
	if l.EnrichTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.EnrichTimeout)
		defer cancel()
	}

	text, err := l.client.articleText(ctx, l.Name(), link)
	if err != nil {
		slog.Debug("local article extraction failed", "error", err)
		return ""
	}
	return truncateWords(cleanText(text), localMaxWords)
}

// rank asks the generator for the top headlines and maps them back onto
// candidates. Any failure falls back to the first few candidates.
func (l *LocalNews) rank(ctx context.Context, city string, candidates []localCandidate, modelHint string) []localCandidate {
	fallback := candidates[:min(localFallbackCount, len(candidates))]
	if l.ranker == nil {
		return fallback
	}

	pool := candidates[:min(localRankCandidates, len(candidates))]
	titles := make([]string, len(pool))
	for i, c := range pool {
		titles[i] = c.title
	}

	resp, err := l.ranker.GenerateText(ctx, ai.LocalRankingPrompt(city, titles, localPickCount), modelHint)
	if err != nil {
		slog.Warn("local news ranking failed, using unranked candidates", "city", city, "error", err)
		return fallback
	}

	idx := MatchHeadlines(ai.CleanLines(resp), titles)
	if len(idx) == 0 {
		slog.Warn("local news ranking matched no headlines, using unranked candidates", "city", city)
		return fallback
	}
	if len(idx) > localPickCount {
		idx = idx[:localPickCount]
	}
	out := make([]localCandidate, len(idx))
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

// filterLocalCandidates drops stale or irrelevant feed entries and strips
// outlet suffixes from titles.
func filterLocalCandidates(items []*gofeed.Item, now time.Time, maxAge time.Duration) []localCandidate {
	var out []localCandidate
	for _, it := range items {
		title := cleanText(it.Title)
		if title == "" {
			continue
		}
		lower := strings.ToLower(title)
		if strings.Contains(lower, "weather") && len(title) < localWeatherMaxLen {
			continue
		}
		if isStaleHeadline(title, now) {
			continue
		}
		if maxAge > 0 && it.PublishedParsed != nil && now.Sub(*it.PublishedParsed) > maxAge {
			continue
		}

		title = strings.TrimSpace(outletSuffixRe.ReplaceAllString(title, ""))
		if len(title) <= localMinTitleLen {
			continue
		}

		var published *time.Time
		if it.PublishedParsed != nil {
			t := *it.PublishedParsed
			published = &t
		}
		out = append(out, localCandidate{title: title, link: it.Link, published: published})
	}
	return out
}

// isStaleHeadline reports whether a title refers to events from an earlier
// year, either by phrase or by naming a year before now's.
func isStaleHeadline(title string, now time.Time) bool {
	if relativeAgeRe.MatchString(title) {
		return true
	}
	for _, m := range yearRe.FindAllString(title, -1) {
		if y, err := strconv.Atoi(m); err == nil && y < now.Year() {
			return true
		}
	}
	return false
}
