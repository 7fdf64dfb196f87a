package sources

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// WeatherObservation is the subset of current conditions used in a report.
type WeatherObservation struct {
	Location    string
	TempF       float64
	FeelsLikeF  float64
	Humidity    int
	WindMPH     float64
	Description string
}

// Weather reports current conditions for the requested ZIP code from
// OpenWeatherMap.
type Weather struct {
	client  *Client
	apiKey  string
	baseURL string
	now     func() time.Time
}

var _ Source = (*Weather)(nil)

// NewWeather creates a weather adapter.
func NewWeather(client *Client, apiKey string) *Weather {
	return &Weather{client: client, apiKey: apiKey, baseURL: openWeatherBaseURL, now: time.Now}
}

func (w *Weather) Name() string     { return ProviderWeather }
func (w *Weather) Configured() bool { return w.apiKey != "" }

type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (w *Weather) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	if req.ZipCode == "" {
		return []models.ContentItem{}, nil
	}

	q := url.Values{}
	q.Set("zip", req.ZipCode+",US")
	q.Set("units", "imperial")
	q.Set("appid", w.apiKey)

	var resp openWeatherResponse
	if err := w.client.getJSON(ctx, w.Name(), w.baseURL+"/weather?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	obs := WeatherObservation{
		Location:   resp.Name,
		TempF:      resp.Main.Temp,
		FeelsLikeF: resp.Main.FeelsLike,
		Humidity:   resp.Main.Humidity,
		WindMPH:    resp.Wind.Speed,
	}
	if obs.Location == "" {
		obs.Location = CityForZip(req.ZipCode)
	}
	if len(resp.Weather) > 0 {
		obs.Description = resp.Weather[0].Description
	}

	now := w.now()
	return []models.ContentItem{{
		Title:       "Local Weather Update",
		Body:        FormatWeatherReport(obs),
		Category:    models.CategoryWeather,
		Source:      "Weather Service",
		PublishedAt: &now,
		Provider:    w.Name(),
	}}, nil
}

// FormatWeatherReport renders an observation as a short spoken report.
func FormatWeatherReport(obs WeatherObservation) string {
	temp := int(math.Round(obs.TempF))
	desc := obs.Description
	if desc == "" {
		desc = "unsettled skies"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current weather in %s: It's %d degrees Fahrenheit with %s. ", obs.Location, temp, desc)
	fmt.Fprintf(&b, "It feels like %d degrees. ", int(math.Round(obs.FeelsLikeF)))
	fmt.Fprintf(&b, "Humidity is at %d percent", obs.Humidity)
	if obs.WindMPH > 0 {
		fmt.Fprintf(&b, " with winds at %d miles per hour", int(math.Round(obs.WindMPH)))
	}
	b.WriteString(".")

	switch {
	case temp < 40:
		b.WriteString(" Bundle up if you're heading outside.")
	case temp > 80:
		b.WriteString(" Stay cool and hydrated.")
	case strings.Contains(strings.ToLower(desc), "rain"):
		b.WriteString(" Don't forget your umbrella.")
	}
	return b.String()
}
