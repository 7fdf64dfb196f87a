package models

import "time"

// ProviderHealthRecord is the persisted circuit-breaker state of one content
// provider.
type ProviderHealthRecord struct {
	Provider          string     `json:"provider"`
	PausedUntil       *time.Time `json:"paused_until,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	LastFailureReason string     `json:"last_failure_reason,omitempty"`
	LastFailureAt     *time.Time `json:"last_failure_at,omitempty"`
}

// Paused reports whether the provider is paused at now.
func (r ProviderHealthRecord) Paused(now time.Time) bool {
	return r.PausedUntil != nil && now.Before(*r.PausedUntil)
}
