package pipeline

import (
	"errors"

	"github.com/hoanghai1803/daybrief/internal/aggregator"
)

// Kind is the closed set of reasons a run produces no briefing.
type Kind string

const (
	KindAllProvidersRateLimited Kind = "all_providers_rate_limited"
	KindAllProvidersFailed      Kind = "all_providers_failed"
	KindNoProvidersConfigured   Kind = "no_providers_configured"
	KindNoContentAfterFiltering Kind = "no_content_after_filtering"
)

// Error is a failed run. Report holds each provider's outcome.
type Error struct {
	Kind   Kind
	Report []aggregator.ProviderStatus
	Err    error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAllProvidersRateLimited:
		msg = "all content providers are rate-limited, try again later"
	case KindNoProvidersConfigured:
		msg = "no content providers are enabled or configured"
	case KindNoContentAfterFiltering:
		msg = "no recent content matched the selected categories"
	default:
		msg = "content providers are unreachable"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// fromAggregation converts an aggregation failure into a pipeline Error.
// Other errors are returned unchanged.
func fromAggregation(err error) error {
	var aggErr *aggregator.Error
	if !errors.As(err, &aggErr) {
		return err
	}
	kind := KindAllProvidersFailed
	switch aggErr.Reason {
	case aggregator.ReasonRateLimited:
		kind = KindAllProvidersRateLimited
	case aggregator.ReasonNoProviders:
		kind = KindNoProvidersConfigured
	case aggregator.ReasonEmpty:
		kind = KindNoContentAfterFiltering
	}
	return &Error{Kind: kind, Report: aggErr.Statuses, Err: err}
}
