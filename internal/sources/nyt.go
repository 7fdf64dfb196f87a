package sources

import (
	"context"
	"net/url"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const nytBaseURL = "https://api.nytimes.com/svc/topstories/v2"

var nytSections = map[string]string{
	"general":       "world",
	"business":      "business",
	"entertainment": "arts",
	"health":        "health",
	"science":       "science",
	"sports":        "sports",
	"technology":    "technology",
}

// NYT reads the New York Times top stories feed per section.
type NYT struct {
	client  *Client
	apiKey  string
	baseURL string
}

var _ Source = (*NYT)(nil)

// NewNYT creates a New York Times adapter.
func NewNYT(client *Client, apiKey string) *NYT {
	return &NYT{client: client, apiKey: apiKey, baseURL: nytBaseURL}
}

func (n *NYT) Name() string     { return ProviderNYT }
func (n *NYT) Configured() bool { return n.apiKey != "" }

type nytResponse struct {
	Results []struct {
		Title         string `json:"title"`
		Abstract      string `json:"abstract"`
		URL           string `json:"url"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

// Fetch queries each distinct section once. Several categories can map to
// the same section; the first category wins.
func (n *NYT) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	seen := make(map[string]bool)
	var categories []string
	for _, cat := range req.Categories {
		sec := nytSection(cat)
		if seen[sec] {
			continue
		}
		seen[sec] = true
		categories = append(categories, cat)
	}
	return fetchCategories(ctx, n.Name(), categories, n.fetchCategory)
}

func nytSection(category string) string {
	if sec, ok := nytSections[category]; ok {
		return sec
	}
	return "world"
}

func (n *NYT) fetchCategory(ctx context.Context, category string) ([]models.ContentItem, error) {
	q := url.Values{}
	q.Set("api-key", n.apiKey)
	rawURL := n.baseURL + "/" + url.PathEscape(nytSection(category)) + ".json?" + q.Encode()

	var resp nytResponse
	if err := n.client.getJSON(ctx, n.Name(), rawURL, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, perCategoryLimit)
	for _, r := range resp.Results {
		if len(items) == perCategoryLimit {
			break
		}
		if it, ok := newsItem(n.Name(), r.Title, r.Abstract, r.URL, "The New York Times", category, r.PublishedDate); ok {
			items = append(items, it)
		}
	}
	return items, nil
}
