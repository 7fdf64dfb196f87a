package sources

import (
	"context"
	"log/slog"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const perCategoryLimit = 10

// fetchCategories calls fetch for each category in order and concatenates
// the results. The first error stops the loop. It is returned when nothing
// was collected yet or when it will pause the provider; otherwise the
// partial results are returned and the error is logged.
func fetchCategories(ctx context.Context, provider string, categories []string, fetch func(ctx context.Context, category string) ([]models.ContentItem, error)) ([]models.ContentItem, error) {
	items := make([]models.ContentItem, 0)
	for _, cat := range categories {
		got, err := fetch(ctx, cat)
		if err != nil {
			if len(items) == 0 || pausing(err) {
				return nil, err
			}
			slog.Warn("provider failed mid-run, keeping partial results",
				"provider", provider, "category", cat, "items", len(items), "error", err)
			return items, nil
		}
		items = append(items, got...)
	}
	return items, nil
}

// newsItem builds a ContentItem for a news provider result, or reports false
// when the result has no usable title.
func newsItem(provider, title, body, url, source, category, published string) (models.ContentItem, bool) {
	title = cleanText(title)
	if title == "" {
		return models.ContentItem{}, false
	}
	return models.ContentItem{
		Title:       title,
		Body:        cleanText(body),
		Category:    category,
		Source:      source,
		URL:         url,
		PublishedAt: timestampPtr(published),
		Provider:    provider,
	}, true
}
