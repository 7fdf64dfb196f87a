// Package sources holds the content provider adapters. Each adapter
// normalizes its provider's payload into models.ContentItem.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
)

// Provider names.
const (
	ProviderGNews    = "gnews"
	ProviderNewsAPI  = "newsapi"
	ProviderGuardian = "guardian"
	ProviderNYT      = "nyt"
	ProviderLocal    = "local"
	ProviderWeather  = "weather"
	ProviderTMDB     = "tmdb"
	ProviderRSS      = "rss"
)

// NewsProviders are the general news search providers, in default order.
var NewsProviders = []string{ProviderGNews, ProviderNewsAPI, ProviderGuardian, ProviderNYT}

// Request carries the per-run parameters an adapter may use.
type Request struct {
	// Categories are the news categories to query. Reserved categories are
	// already removed.
	Categories []string
	ZipCode    string
	// MaxAge bounds how old a feed entry may be before adapters that
	// pre-filter discard it. Zero disables the check.
	MaxAge    time.Duration
	ModelHint string
}

// Source is one content provider. Fetch returns an empty slice, not an
// error, when the provider simply has nothing.
type Source interface {
	Name() string
	// Configured reports whether the adapter has the credentials it needs.
	Configured() bool
	Fetch(ctx context.Context, req Request) ([]models.ContentItem, error)
}

// ProviderError is an adapter failure: transport, auth, or format.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Provider, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the provider's response status, or zero when no
// response arrived.
func (e *ProviderError) HTTPStatus() int {
	return e.StatusCode
}

// statusError maps a non-2xx response to a ProviderError.
func statusError(provider string, code int) *ProviderError {
	var msg string
	switch code {
	case http.StatusTooManyRequests:
		msg = "rate limit exceeded"
	case http.StatusUnauthorized:
		msg = "unauthorized"
	case http.StatusForbidden:
		msg = "access forbidden"
	default:
		msg = "unexpected status"
	}
	return &ProviderError{Provider: provider, StatusCode: code, Message: msg}
}

// pausing reports whether err will pause the provider, which makes partial
// results not worth keeping.
func pausing(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode == http.StatusForbidden
}
