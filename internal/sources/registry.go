package sources

import (
	"slices"
	"time"

	"github.com/hoanghai1803/daybrief/internal/ai"
	"github.com/hoanghai1803/daybrief/internal/models"
)

// Keys holds provider API keys.
type Keys struct {
	GNews       string
	NewsAPI     string
	Guardian    string
	NYT         string
	TMDB        string
	OpenWeather string
}

// Options tunes adapter behaviour beyond credentials.
type Options struct {
	// EnrichLocal fills local headline bodies with readable article text.
	EnrichLocal bool
}

// Registry builds the adapter set for a run from the configured providers.
type Registry struct {
	news    map[string]Source
	local   Source
	weather Source
	tmdb    Source
	rss     Source
}

// NewRegistry creates every adapter against the shared client. ranker is
// used by local news and may be nil; feeds may be nil to disable curated
// feeds.
func NewRegistry(client *Client, keys Keys, ranker ai.Generator, feeds FeedLister, opts Options) *Registry {
	local := NewLocalNews(client, ranker)
	local.Enrich = opts.EnrichLocal

	r := &Registry{
		news: map[string]Source{
			ProviderGNews:    NewGNews(client, keys.GNews),
			ProviderNewsAPI:  NewNewsAPI(client, keys.NewsAPI),
			ProviderGuardian: NewGuardian(client, keys.Guardian),
			ProviderNYT:      NewNYT(client, keys.NYT),
		},
		local:   local,
		weather: NewWeather(client, keys.OpenWeather),
		tmdb:    NewTMDB(client, keys.TMDB),
	}
	if feeds != nil {
		r.rss = NewRSS(client, feeds)
	}
	return r
}

// ForSettings returns the adapters enabled by settings, in a stable order:
// news providers, local news, weather, entertainment, curated feeds. An
// empty provider list enables every news provider. Local news needs a ZIP
// code.
func (r *Registry) ForSettings(s models.RunSettings) []Source {
	var out []Source

	names := s.Providers
	if len(names) == 0 {
		names = NewsProviders
	}
	for _, name := range NewsProviders {
		if !slices.Contains(names, name) {
			continue
		}
		if src, ok := r.news[name]; ok {
			out = append(out, src)
		}
	}

	if s.IncludeLocal && s.ZipCode != "" && r.local != nil {
		out = append(out, r.local)
	}
	if s.IncludeWeather && r.weather != nil {
		out = append(out, r.weather)
	}
	if s.IncludeEntertainment && r.tmdb != nil {
		out = append(out, r.tmdb)
	}
	if s.IncludeCuratedFeeds && r.rss != nil {
		out = append(out, r.rss)
	}
	return out
}

// RequestFor derives the adapter request from run settings.
func RequestFor(s models.RunSettings) Request {
	var cats []string
	for _, c := range s.Categories {
		// Weather and local have dedicated adapters; entertainment is also
		// a searchable news category.
		if c != models.CategoryWeather && c != models.CategoryLocal {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		cats = []string{models.CategoryGeneral}
	}
	return Request{
		Categories: cats,
		ZipCode:    s.ZipCode,
		MaxAge:     time.Duration(s.MaxAgeHours) * time.Hour,
		ModelHint:  s.ModelHint,
	}
}
