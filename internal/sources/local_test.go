package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/mmcdole/gofeed"
)

type stubRanker struct {
	resp   string
	err    error
	prompt string
}

func (s *stubRanker) Name() string { return "stub" }

func (s *stubRanker) GenerateText(_ context.Context, prompt, _ string) (string, error) {
	s.prompt = prompt
	return s.resp, s.err
}

func rssBody(now time.Time, titles ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Local</title>`)
	for i, title := range titles {
		fmt.Fprintf(&b, "<item><title>%s</title><link>https://local.example/%d</link><pubDate>%s</pubDate></item>",
			title, i, now.Add(-time.Duration(i)*time.Hour).Format(time.RFC1123Z))
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestCityForZip(t *testing.T) {
	if got := CityForZip("28411"); got != "Wilmington" {
		t.Errorf("CityForZip(28411) = %q", got)
	}
	if got := CityForZip("99999"); got != "99999" {
		t.Errorf("unknown zip should pass through, got %q", got)
	}
}

func TestFilterLocalCandidates(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	old := now.Add(-72 * time.Hour)

	items := []*gofeed.Item{
		{Title: "Weather alert today", PublishedParsed: &recent},
		{Title: "City marks anniversary of the 2019 flood recovery", PublishedParsed: &recent},
		{Title: "Parade route announced from five years ago archive", PublishedParsed: &recent},
		{Title: "Harbor bridge repairs finish ahead of schedule - Wilmington Star News", Link: "https://x/1", PublishedParsed: &recent},
		{Title: "Short headline here", PublishedParsed: &recent},
		{Title: "Library expansion plan receives final approval", PublishedParsed: &old},
		{Title: "New festival planned for the 2026 summer season downtown"},
		{Title: "Long weather story about a storm that flooded three roads", PublishedParsed: &recent},
	}

	got := filterLocalCandidates(items, now, 24*time.Hour)
	var titles []string
	for _, c := range got {
		titles = append(titles, c.title)
	}
	want := []string{
		"Harbor bridge repairs finish ahead of schedule",
		"New festival planned for the 2026 summer season downtown",
		"Long weather story about a storm that flooded three roads",
	}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Errorf("candidates = %q, want %q", titles, want)
	}
	if got[0].link != "https://x/1" || got[0].published == nil {
		t.Errorf("unexpected candidate %+v", got[0])
	}
}

func TestIsStaleHeadline(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		title string
		want  bool
	}{
		{"Review of the 2025 budget season", true},
		{"Plans for 2026 unveiled", false},
		{"Looking back: last year in review", true},
		{"Ten years ago the mill closed", true},
		{"Route 2025 construction detour", true},
		{"Council meets tonight", false},
	}
	for _, tt := range tests {
		if got := isStaleHeadline(tt.title, now); got != tt.want {
			t.Errorf("isStaleHeadline(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func newLocalServer(t *testing.T, now time.Time, titles ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Query().Get("q"), "local news") {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody(now, titles...)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var localTitles = []string{
	"Harbor bridge repairs finish ahead of schedule",
	"County fair returns with expanded livestock show",
	"Downtown parking garage opens its doors to drivers",
	"Beach renourishment project gets federal funding",
}

func TestLocalNewsRanked(t *testing.T) {
	now := time.Now()
	srv := newLocalServer(t, now, localTitles...)

	ranker := &stubRanker{resp: "1. Beach renourishment project gets federal funding\n- County fair returns with livestock show\nSomething unrelated entirely"}
	l := NewLocalNews(NewClient(0, 0), ranker)
	l.baseURL = srv.URL
	l.now = func() time.Time { return now }

	items, err := l.Fetch(context.Background(), Request{ZipCode: "28411", MaxAge: 24 * time.Hour})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 ranked items, got %d: %+v", len(items), items)
	}
	if items[0].Title != localTitles[3] || items[1].Title != localTitles[1] {
		t.Errorf("unexpected order %q, %q", items[0].Title, items[1].Title)
	}
	for _, it := range items {
		if it.Category != models.CategoryLocal || it.Source != "Local News" || it.Body != it.Title || it.PublishedAt == nil {
			t.Errorf("unexpected item %+v", it)
		}
	}
	if !strings.Contains(ranker.prompt, "Wilmington") {
		t.Error("ranking prompt should name the city")
	}
}

func TestLocalNewsFallback(t *testing.T) {
	now := time.Now()
	srv := newLocalServer(t, now, localTitles...)

	tests := []struct {
		name   string
		ranker *stubRanker
	}{
		{"no ranker", nil},
		{"ranker fails", &stubRanker{err: errors.New("all providers failed")}},
		{"nothing matches", &stubRanker{resp: "Completely different headline about nothing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l *LocalNews
			if tt.ranker == nil {
				l = NewLocalNews(NewClient(0, 0), nil)
			} else {
				l = NewLocalNews(NewClient(0, 0), tt.ranker)
			}
			l.baseURL = srv.URL
			l.now = func() time.Time { return now }

			items, err := l.Fetch(context.Background(), Request{ZipCode: "10001"})
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if len(items) != 3 {
				t.Fatalf("expected 3 fallback items, got %d", len(items))
			}
			for i := range items {
				if items[i].Title != localTitles[i] {
					t.Errorf("item %d = %q, want %q", i, items[i].Title, localTitles[i])
				}
			}
		})
	}
}

func TestLocalNewsWithoutZip(t *testing.T) {
	l := NewLocalNews(NewClient(0, 0), nil)
	items, err := l.Fetch(context.Background(), Request{})
	if err != nil || len(items) != 0 {
		t.Errorf("expected empty success, got %v, %v", items, err)
	}
}

const articlePage = `<!DOCTYPE html><html><head><title>Harbor bridge</title></head><body>
<nav>Home | Sports | Weather</nav>
<article><h1>Harbor bridge repairs finish ahead of schedule</h1>
<p>Crews wrapped up work on the harbor bridge two weeks early, the county said on Tuesday. The span reopens to all traffic on Friday morning after months of lane closures.</p>
<p>Officials credited mild weather and overnight shifts for the faster pace. The project stayed within its original budget, according to the public works department.</p>
<p>Inspectors will return in the spring to check the new deck joints and railings. The county plans a small ribbon cutting at the north approach, and nearby businesses expect foot traffic to pick up again once the sidewalks reopen.</p>
<p>Commuters who had been detouring through downtown should see shorter trips starting this weekend, the transportation office added.</p>
</article></body></html>`

func TestLocalNewsEnrich(t *testing.T) {
	now := time.Now()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			var b strings.Builder
			b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Local</title>`)
			for i, title := range localTitles[:2] {
				fmt.Fprintf(&b, "<item><title>%s</title><link>%s/article/%d</link><pubDate>%s</pubDate></item>",
					title, srv.URL, i, now.Format(time.RFC1123Z))
			}
			b.WriteString(`</channel></rss>`)
			w.Write([]byte(b.String()))
		case "/article/0":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(articlePage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	l := NewLocalNews(NewClient(0, 0), nil)
	l.baseURL = srv.URL + "/rss"
	l.now = func() time.Time { return now }
	l.Enrich = true

	items, err := l.Fetch(context.Background(), Request{ZipCode: "28411"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !strings.Contains(items[0].Body, "two weeks early") {
		t.Errorf("body not enriched: %q", items[0].Body)
	}
	if strings.Contains(items[0].Body, "<p>") {
		t.Errorf("body still has markup: %q", items[0].Body)
	}
	if items[1].Body != items[1].Title {
		t.Errorf("missing page should keep the headline body, got %q", items[1].Body)
	}
}

func TestLocalNewsEnrichHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	l := NewLocalNews(NewClient(time.Minute, 0), nil)
	l.EnrichTimeout = 20 * time.Millisecond

	start := time.Now()
	if got := l.enrich(context.Background(), srv.URL+"/slow"); got != "" {
		t.Errorf("enrich = %q, want empty", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("enrich ignored its deadline, took %v", elapsed)
	}
}
