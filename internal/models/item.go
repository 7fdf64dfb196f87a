package models

import "time"

// Reserved categories are produced by dedicated adapters and are never
// reassigned by classification.
const (
	CategoryWeather       = "weather"
	CategoryEntertainment = "entertainment"
	CategoryLocal         = "local"
	CategoryGeneral       = "general"
)

// ContentItem is one candidate piece of content flowing through a pipeline
// run.
type ContentItem struct {
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Category    string     `json:"category"`
	Source      string     `json:"source"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Provider is the adapter name that produced the item.
	Provider string `json:"provider"`

	// Curated marks items from a manually curated feed. They bypass
	// classification.
	Curated bool `json:"curated,omitempty"`

	PriorityTier   int     `json:"priority_tier"`
	SubstanceScore float64 `json:"substance_score"`
}

// IsReservedCategory reports whether category is one of the system-reserved
// categories.
func IsReservedCategory(category string) bool {
	switch category {
	case CategoryWeather, CategoryEntertainment, CategoryLocal:
		return true
	}
	return false
}
