package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

var dailyShowKeywords = []string{
	"news", "tonight show", "late night", "morning", "good morning",
	"the view", "jeopardy", "wheel of fortune", "price is right",
	"talk show", "daily", "live", "today", "this morning", "late show",
	"jimmy", "stephen colbert", "saturday night live", "snl", "ellen",
	"oprah", "dr. phil", "family feud", "game show", "quiz show",
	"soap opera", "general hospital", "days of our lives",
	"young and the restless", "bold and beautiful",
}

// TMDB builds a single entertainment roundup from The Movie Database.
type TMDB struct {
	client  *Client
	apiKey  string
	baseURL string
	now     func() time.Time
}

var _ Source = (*TMDB)(nil)

// NewTMDB creates an entertainment adapter.
func NewTMDB(client *Client, apiKey string) *TMDB {
	return &TMDB{client: client, apiKey: apiKey, baseURL: tmdbBaseURL, now: time.Now}
}

func (t *TMDB) Name() string     { return ProviderTMDB }
func (t *TMDB) Configured() bool { return t.apiKey != "" }

// TMDBTitle is one show or movie from a TMDB listing.
type TMDBTitle struct {
	Name             string `json:"name"`
	Title            string `json:"title"`
	OriginalLanguage string `json:"original_language"`
	ReleaseDate      string `json:"release_date"`
}

// DisplayName returns the show name or movie title.
func (m TMDBTitle) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Title
}

// EntertainmentListings are the TMDB lists a roundup is built from.
type EntertainmentListings struct {
	TrendingTV   []TMDBTitle
	AiringToday  []TMDBTitle
	PopularFilms []TMDBTitle
	Upcoming     []TMDBTitle
}

type tmdbPage struct {
	Results []TMDBTitle `json:"results"`
}

func (t *TMDB) Fetch(ctx context.Context, _ Request) ([]models.ContentItem, error) {
	var (
		listings EntertainmentListings
		firstErr error
	)
	lists := []struct {
		path  string
		limit int
		dst   *[]TMDBTitle
	}{
		{"/trending/tv/day", 5, &listings.TrendingTV},
		{"/tv/airing_today", 10, &listings.AiringToday},
		{"/movie/popular", 5, &listings.PopularFilms},
		{"/movie/upcoming", 20, &listings.Upcoming},
	}
	for _, l := range lists {
		got, err := t.list(ctx, l.path)
		if err != nil {
			if pausing(err) {
				return nil, err
			}
			slog.Warn("tmdb listing failed", "path", l.path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*l.dst = got[:min(l.limit, len(got))]
	}

	now := t.now()
	body := FormatEntertainment(listings, now)
	if body == "" {
		if firstErr != nil {
			return nil, firstErr
		}
		return []models.ContentItem{}, nil
	}
	return []models.ContentItem{{
		Title:       "Entertainment & TV Today",
		Body:        body,
		Category:    models.CategoryEntertainment,
		Source:      "The Movie Database",
		PublishedAt: &now,
		Provider:    t.Name(),
	}}, nil
}

func (t *TMDB) list(ctx context.Context, path string) ([]TMDBTitle, error) {
	q := url.Values{}
	q.Set("api_key", t.apiKey)
	q.Set("language", "en-US")

	var page tmdbPage
	if err := t.client.getJSON(ctx, t.Name(), t.baseURL+path+"?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// FormatEntertainment renders listings as spoken segments. It returns ""
// when no segment has content.
func FormatEntertainment(l EntertainmentListings, now time.Time) string {
	var segments []string

	var trending []string
	for _, s := range l.TrendingTV {
		if len(trending) == 3 {
			break
		}
		if s.OriginalLanguage == "en" && s.DisplayName() != "" {
			trending = append(trending, s.DisplayName())
		}
	}
	if len(trending) > 0 {
		segments = append(segments, fmt.Sprintf("In trending television, %s %s capturing audiences today.",
			naturalList(trending), pluralVerb(len(trending), "is", "are")))
	}

	var premieres []string
	for _, s := range l.AiringToday {
		if len(premieres) == 2 {
			break
		}
		name := s.DisplayName()
		if s.OriginalLanguage == "en" && name != "" && !isDailyShow(name) {
			premieres = append(premieres, name)
		}
	}
	if len(premieres) > 0 {
		segments = append(segments, fmt.Sprintf("Tonight, %s %s with new episodes.",
			naturalList(premieres), pluralVerb(len(premieres), "premieres", "premiere")))
	}

	var films []string
	for _, m := range l.PopularFilms {
		if len(films) == 3 {
			break
		}
		if m.DisplayName() != "" {
			films = append(films, m.DisplayName())
		}
	}
	if len(films) > 0 {
		segments = append(segments, fmt.Sprintf("In theaters and streaming, %s %s to draw viewers.",
			naturalList(films), pluralVerb(len(films), "continues", "continue")))
	}

	today := now.Format("2006-01-02")
	var upcoming []string
	for _, m := range l.Upcoming {
		if len(upcoming) == 2 {
			break
		}
		if m.DisplayName() == "" || m.ReleaseDate <= today {
			continue
		}
		release, err := time.Parse("2006-01-02", m.ReleaseDate)
		if err != nil {
			continue
		}
		upcoming = append(upcoming, fmt.Sprintf("%s on %s", m.DisplayName(), release.Format("Jan 2")))
	}
	if len(upcoming) > 0 {
		segments = append(segments, fmt.Sprintf("Coming soon to theaters: %s.", naturalList(upcoming)))
	}

	return strings.Join(segments, " ")
}

// naturalList joins items as "A", "A and B", or "A, B, and C".
func naturalList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func pluralVerb(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// isDailyShow reports whether name looks like a news, talk or game show
// that airs every day.
func isDailyShow(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range dailyShowKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
