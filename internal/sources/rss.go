package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	rssMaxConcurrent = 5
	rssItemsPerFeed  = 10
)

// FeedLister returns the curated feeds to read.
type FeedLister interface {
	GetActiveFeeds(ctx context.Context) ([]models.RSSFeed, error)
}

// RSS reads the user's curated RSS feeds. Items are marked Curated and keep
// the category of their feed.
type RSS struct {
	client *Client
	feeds  FeedLister
}

var _ Source = (*RSS)(nil)

// NewRSS creates a curated feed adapter.
func NewRSS(client *Client, feeds FeedLister) *RSS {
	return &RSS{client: client, feeds: feeds}
}

func (r *RSS) Name() string     { return ProviderRSS }
func (r *RSS) Configured() bool { return r.feeds != nil }

// Fetch reads all active feeds concurrently. A failing feed is logged and
// skipped; an error is returned only when every feed failed.
func (r *RSS) Fetch(ctx context.Context, _ Request) ([]models.ContentItem, error) {
	feeds, err := r.feeds.GetActiveFeeds(ctx)
	if err != nil {
		return nil, &ProviderError{Provider: r.Name(), Message: "listing active feeds", Err: err}
	}
	if len(feeds) == 0 {
		return []models.ContentItem{}, nil
	}

	var (
		mu       sync.Mutex
		results  = make([][]models.ContentItem, len(feeds))
		failures int
		lastErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rssMaxConcurrent)

	for i, f := range feeds {
		g.Go(func() error {
			parsed, err := r.client.getFeed(gctx, r.Name(), f.URL)
			if err != nil {
				slog.Warn("failed to fetch curated feed", "feed", f.Name, "url", f.URL, "error", err)
				mu.Lock()
				failures++
				lastErr = err
				mu.Unlock()
				return nil
			}
			items := feedItems(f, parsed.Items)
			mu.Lock()
			results[i] = items
			mu.Unlock()
			slog.Debug("fetched curated feed", "feed", f.Name, "items", len(items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching curated feeds: %w", err)
	}

	if failures == len(feeds) {
		return nil, lastErr
	}

	out := make([]models.ContentItem, 0)
	for _, items := range results {
		out = append(out, items...)
	}
	return out, nil
}

// feedItems converts the newest entries of one feed.
func feedItems(feed models.RSSFeed, entries []*gofeed.Item) []models.ContentItem {
	sorted := make([]*gofeed.Item, 0, len(entries))
	for _, e := range entries {
		if e != nil && strings.TrimSpace(e.Title) != "" {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := entryTime(sorted[i]), entryTime(sorted[j])
		if ti == nil || tj == nil {
			return ti != nil
		}
		return ti.After(*tj)
	})
	if len(sorted) > rssItemsPerFeed {
		sorted = sorted[:rssItemsPerFeed]
	}

	category := strings.ToLower(feed.Category)
	if category == "" {
		category = models.CategoryGeneral
	}

	items := make([]models.ContentItem, 0, len(sorted))
	for _, e := range sorted {
		body := e.Description
		if body == "" {
			body = e.Content
		}
		var published *time.Time
		if t := entryTime(e); t != nil {
			tt := *t
			published = &tt
		}
		items = append(items, models.ContentItem{
			Title:       cleanText(e.Title),
			Body:        truncateWords(cleanText(body), localMaxWords),
			Category:    category,
			Source:      feed.Name,
			URL:         e.Link,
			PublishedAt: published,
			Provider:    ProviderRSS,
			Curated:     true,
		})
	}
	return items
}

func entryTime(e *gofeed.Item) *time.Time {
	if e.PublishedParsed != nil {
		return e.PublishedParsed
	}
	return e.UpdatedParsed
}
