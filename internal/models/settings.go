package models

// DurationBucket is a requested output length range, in minutes.
type DurationBucket string

// Supported duration buckets, shortest first.
const (
	Duration1To3   DurationBucket = "1-3"
	Duration3To5   DurationBucket = "3-5"
	Duration5To10  DurationBucket = "5-10"
	Duration10To15 DurationBucket = "10-15"
	Duration15To20 DurationBucket = "15-20"
	Duration20To30 DurationBucket = "20-30"
)

// DurationBuckets lists every supported bucket in ascending order.
var DurationBuckets = []DurationBucket{
	Duration1To3, Duration3To5, Duration5To10,
	Duration10To15, Duration15To20, Duration20To30,
}

// Valid reports whether d is a supported bucket.
func (d DurationBucket) Valid() bool {
	for _, b := range DurationBuckets {
		if d == b {
			return true
		}
	}
	return false
}

// RunSettings configures one pipeline run. It is stored verbatim on schedules
// and passed through to the pipeline when they fire.
type RunSettings struct {
	// Categories is the enabled category vocabulary. Classification drops
	// anything outside it.
	Categories []string `json:"categories"`

	// Providers restricts the news search providers. Empty means every
	// configured one.
	Providers []string `json:"providers,omitempty"`

	IncludeLocal         bool   `json:"include_local"`
	IncludeWeather       bool   `json:"include_weather"`
	IncludeEntertainment bool   `json:"include_entertainment"`
	IncludeCuratedFeeds  bool   `json:"include_curated_feeds"`
	ZipCode              string `json:"zip_code,omitempty"`

	Duration    DurationBucket `json:"duration"`
	MaxAgeHours int            `json:"max_age_hours,omitempty"`

	GenerateScript bool   `json:"generate_script"`
	ModelHint      string `json:"model_hint,omitempty"`
}

// Merge returns s with zero-valued fields filled from defaults. Boolean
// toggles are taken from s as-is.
func (s RunSettings) Merge(defaults RunSettings) RunSettings {
	out := s
	if len(out.Categories) == 0 {
		out.Categories = defaults.Categories
	}
	if len(out.Providers) == 0 {
		out.Providers = defaults.Providers
	}
	if out.ZipCode == "" {
		out.ZipCode = defaults.ZipCode
	}
	if out.Duration == "" {
		out.Duration = defaults.Duration
	}
	if out.MaxAgeHours == 0 {
		out.MaxAgeHours = defaults.MaxAgeHours
	}
	if out.ModelHint == "" {
		out.ModelHint = defaults.ModelHint
	}
	return out
}
