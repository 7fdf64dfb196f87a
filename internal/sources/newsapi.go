package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// removedMarker is what NewsAPI puts in place of withdrawn articles.
const removedMarker = "[Removed]"

// NewsAPI reads top headlines from newsapi.org once per category.
type NewsAPI struct {
	client  *Client
	apiKey  string
	baseURL string
}

var _ Source = (*NewsAPI)(nil)

// NewNewsAPI creates a NewsAPI adapter.
func NewNewsAPI(client *Client, apiKey string) *NewsAPI {
	return &NewsAPI{client: client, apiKey: apiKey, baseURL: newsAPIBaseURL}
}

func (n *NewsAPI) Name() string     { return ProviderNewsAPI }
func (n *NewsAPI) Configured() bool { return n.apiKey != "" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
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

func (n *NewsAPI) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	return fetchCategories(ctx, n.Name(), req.Categories, n.fetchCategory)
}

func (n *NewsAPI) fetchCategory(ctx context.Context, category string) ([]models.ContentItem, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("language", "en")
	q.Set("country", "us")
	q.Set("pageSize", strconv.Itoa(perCategoryLimit))

	var resp newsAPIResponse
	header := http.Header{"X-Api-Key": {n.apiKey}}
	if err := n.client.getJSON(ctx, n.Name(), n.baseURL+"/top-headlines?"+q.Encode(), header, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, &ProviderError{Provider: n.Name(), Message: resp.Message}
	}

	items := make([]models.ContentItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == removedMarker {
			continue
		}
		body := a.Description
		if body == "" {
			body = a.Content
		}
		source := a.Source.Name
		if source == "" {
			source = "NewsAPI"
		}
		if it, ok := newsItem(n.Name(), a.Title, body, a.URL, source, category, a.PublishedAt); ok {
			items = append(items, it)
		}
	}
	return items, nil
}
