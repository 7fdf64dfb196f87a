package models

import "time"

// ScheduleDefinition is a recurring briefing job.
type ScheduleDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	TimeOfDay   string      `json:"time"`
	Days        []string    `json:"days"`
	Active      bool        `json:"active"`
	Settings    RunSettings `json:"settings"`
	CreatedAt   time.Time   `json:"created_at"`
	LastRunAt   *time.Time  `json:"last_run,omitempty"`
	NextRunAt   *time.Time  `json:"next_run"`
	LastSuccess *bool       `json:"last_success,omitempty"`
}
