package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const (
	guardianBaseURL  = "https://content.guardianapis.com"
	guardianMaxWords = 120
)

var guardianSections = map[string]string{
	"general":       "world",
	"business":      "business",
	"entertainment": "culture",
	"health":        "society",
	"science":       "science",
	"sports":        "sport",
	"technology":    "technology",
}

// Guardian searches the Guardian content API by section.
type Guardian struct {
	client  *Client
	apiKey  string
	baseURL string
}

var _ Source = (*Guardian)(nil)

// NewGuardian creates a Guardian adapter.
func NewGuardian(client *Client, apiKey string) *Guardian {
	return &Guardian{client: client, apiKey: apiKey, baseURL: guardianBaseURL}
}

func (g *Guardian) Name() string     { return ProviderGuardian }
func (g *Guardian) Configured() bool { return g.apiKey != "" }

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				BodyText  string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

func (g *Guardian) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	return fetchCategories(ctx, g.Name(), req.Categories, g.fetchCategory)
}

func (g *Guardian) fetchCategory(ctx context.Context, category string) ([]models.ContentItem, error) {
	section, ok := guardianSections[category]
	if !ok {
		section = "world"
	}
	q := url.Values{}
	q.Set("section", section)
	q.Set("show-fields", "trailText,bodyText")
	q.Set("page-size", strconv.Itoa(perCategoryLimit))
	q.Set("order-by", "newest")
	q.Set("api-key", g.apiKey)

	var resp guardianResponse
	if err := g.client.getJSON(ctx, g.Name(), g.baseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Response.Status == "error" {
		return nil, &ProviderError{Provider: g.Name(), Message: resp.Response.Message}
	}

	items := make([]models.ContentItem, 0, len(resp.Response.Results))
	for _, r := range resp.Response.Results {
		body := r.Fields.TrailText
		if body == "" {
			body = truncateWords(r.Fields.BodyText, guardianMaxWords)
		}
		if it, ok := newsItem(g.Name(), r.WebTitle, body, r.WebURL, "The Guardian", category, r.WebPublicationDate); ok {
			items = append(items, it)
		}
	}
	return items, nil
}
