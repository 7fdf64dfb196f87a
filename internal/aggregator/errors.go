package aggregator

import (
	"fmt"
	"strings"
)

// Reason classifies why a run produced no items.
type Reason string

const (
	// ReasonRateLimited means every attempted provider was paused or
	// rate-limited.
	ReasonRateLimited Reason = "rate_limited"
	// ReasonFailed means providers failed for other reasons.
	ReasonFailed Reason = "failed"
	// ReasonNoProviders means nothing was enabled or configured.
	ReasonNoProviders Reason = "no_providers"
	// ReasonEmpty means at least one provider succeeded but returned
	// nothing.
	ReasonEmpty Reason = "empty"
)

// Error is returned when a run obtained zero items.
type Error struct {
	Reason   Reason
	Statuses []ProviderStatus
}

func (e *Error) Error() string {
	var msg string
	switch e.Reason {
	case ReasonRateLimited:
		msg = "all providers are currently rate-limited, try again later"
	case ReasonNoProviders:
		msg = "no content providers are enabled or configured"
	case ReasonEmpty:
		msg = "providers returned no content"
	default:
		msg = "all providers failed"
	}

	var details []string
	for _, st := range e.Statuses {
		if st.Detail != "" {
			details = append(details, fmt.Sprintf("%s: %s", st.Provider, st.Detail))
		}
	}
	if len(details) == 0 {
		return msg
	}
	return msg + " (" + strings.Join(details, "; ") + ")"
}

// reasonFor derives the failure reason from a run's statuses.
func reasonFor(statuses []ProviderStatus) Reason {
	attempted, limited, succeeded := 0, 0, 0
	for _, st := range statuses {
		switch st.Status {
		case StatusNotConfigured:
			continue
		case StatusPaused:
			limited++
		case StatusFailed:
			if st.RateLimited {
				limited++
			}
		case StatusOK, StatusEmpty:
			succeeded++
		}
		attempted++
	}

	switch {
	case attempted == 0:
		return ReasonNoProviders
	case succeeded > 0:
		return ReasonEmpty
	case limited == attempted:
		return ReasonRateLimited
	default:
		return ReasonFailed
	}
}
