package schedule

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// parseTimeOfDay splits a validated "HH:MM" value.
func parseTimeOfDay(s string) (hour, minute int) {
	h, m, _ := strings.Cut(s, ":")
	hour, _ = strconv.Atoi(h)
	minute, _ = strconv.Atoi(m)
	return hour, minute
}

// slotOn returns timeOfDay on the calendar date of day, in day's location.
func slotOn(day time.Time, timeOfDay string) time.Time {
	h, m := parseTimeOfDay(timeOfDay)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// NextRun returns the earliest slot strictly after now whose weekday is in
// days, scanning today and the following seven days. It returns nil when no
// day matches.
func NextRun(now time.Time, timeOfDay string, days []string) *time.Time {
	for i := 0; i <= 7; i++ {
		slot := slotOn(now.AddDate(0, 0, i), timeOfDay)
		if !slices.Contains(days, slot.Weekday().String()) {
			continue
		}
		if slot.After(now) {
			return &slot
		}
	}
	return nil
}
