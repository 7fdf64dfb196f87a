package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/mmcdole/gofeed"
)

type stubFeeds struct {
	feeds []models.RSSFeed
	err   error
}

func (s stubFeeds) GetActiveFeeds(context.Context) ([]models.RSSFeed, error) {
	return s.feeds, s.err
}

func TestFeedItemsNewestFirst(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []*gofeed.Item{
		{Title: "Undated entry", Description: "no date"},
	}
	for i := 0; i < 12; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		entries = append(entries, &gofeed.Item{
			Title:           fmt.Sprintf("Entry %02d", i),
			Description:     "<p>Body</p>",
			Link:            fmt.Sprintf("https://feed.example/%d", i),
			PublishedParsed: &ts,
		})
	}
	entries = append(entries, &gofeed.Item{Title: "  "})

	feed := models.RSSFeed{Name: "Ars Technica", Category: "Technology"}
	items := feedItems(feed, entries)

	if len(items) != rssItemsPerFeed {
		t.Fatalf("expected %d items, got %d", rssItemsPerFeed, len(items))
	}
	if items[0].Title != "Entry 11" || items[9].Title != "Entry 02" {
		t.Errorf("unexpected order: first %q, last %q", items[0].Title, items[9].Title)
	}
	for _, it := range items {
		if !it.Curated || it.Category != "technology" || it.Source != "Ars Technica" || it.Body != "Body" {
			t.Errorf("unexpected item %+v", it)
		}
	}
}

func TestRSSFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>
			<item><title>Curated story</title><link>https://c.example/1</link><description>Some text</description></item>
		</channel></rss>`))
	}))
	defer srv.Close()

	c := NewClient(0, 0)

	t.Run("partial failure", func(t *testing.T) {
		r := NewRSS(c, stubFeeds{feeds: []models.RSSFeed{
			{Name: "Good", URL: srv.URL + "/good"},
			{Name: "Broken", URL: srv.URL + "/broken"},
		}})
		items, err := r.Fetch(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(items) != 1 || items[0].Category != models.CategoryGeneral || items[0].Source != "Good" {
			t.Errorf("unexpected items %+v", items)
		}
	})

	t.Run("all failed", func(t *testing.T) {
		r := NewRSS(c, stubFeeds{feeds: []models.RSSFeed{{Name: "Broken", URL: srv.URL + "/broken"}}})
		if _, err := r.Fetch(context.Background(), Request{}); err == nil {
			t.Error("expected error when every feed fails")
		}
	})

	t.Run("no feeds", func(t *testing.T) {
		r := NewRSS(c, stubFeeds{})
		items, err := r.Fetch(context.Background(), Request{})
		if err != nil || len(items) != 0 {
			t.Errorf("expected empty success, got %v, %v", items, err)
		}
	})

	t.Run("lister error", func(t *testing.T) {
		r := NewRSS(c, stubFeeds{err: fmt.Errorf("db closed")})
		_, err := r.Fetch(context.Background(), Request{})
		if err == nil || !strings.Contains(err.Error(), "db closed") {
			t.Errorf("expected lister error, got %v", err)
		}
	})
}
