package models

import "time"

// Topic is one story covered by a past briefing.
type Topic struct {
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Source string `json:"source"`
}

// BriefingRecord is the saved output of one completed pipeline run.
type BriefingRecord struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Daypart   string         `json:"daypart"`
	Duration  DurationBucket `json:"duration"`
	Trigger   string         `json:"trigger"`
	Topics    []Topic        `json:"topics"`
	Script    string         `json:"script,omitempty"`
}
