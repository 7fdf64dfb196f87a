package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const gnewsBaseURL = "https://gnews.io/api/v4"

var gnewsSearchTerms = map[string]string{
	"general":       "breaking news",
	"business":      "business finance economy",
	"entertainment": "entertainment celebrity movies",
	"health":        "health medical healthcare",
	"science":       "science research technology",
	"sports":        "sports games tournament championship",
	"technology":    "technology tech innovation",
}

// GNews searches gnews.io once per category.
type GNews struct {
	client  *Client
	apiKey  string
	baseURL string
}

var _ Source = (*GNews)(nil)

// NewGNews creates a GNews adapter.
func NewGNews(client *Client, apiKey string) *GNews {
	return &GNews{client: client, apiKey: apiKey, baseURL: gnewsBaseURL}
}

func (g *GNews) Name() string     { return ProviderGNews }
func (g *GNews) Configured() bool { return g.apiKey != "" }

type gnewsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (g *GNews) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	return fetchCategories(ctx, g.Name(), req.Categories, g.fetchCategory)
}

func (g *GNews) fetchCategory(ctx context.Context, category string) ([]models.ContentItem, error) {
	term, ok := gnewsSearchTerms[category]
	if !ok {
		term = "news"
	}
	q := url.Values{}
	q.Set("q", term)
	q.Set("lang", "en")
	q.Set("country", "us")
	q.Set("max", strconv.Itoa(perCategoryLimit))
	q.Set("apikey", g.apiKey)

	var resp gnewsResponse
	if err := g.client.getJSON(ctx, g.Name(), g.baseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		body := a.Description
		if body == "" {
			body = a.Content
		}
		source := a.Source.Name
		if source == "" {
			source = "GNews"
		}
		if it, ok := newsItem(g.Name(), a.Title, body, a.URL, source, category, a.PublishedAt); ok {
			items = append(items, it)
		}
	}
	return items, nil
}
