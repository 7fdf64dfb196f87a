package schedule

import (
	"fmt"
	"regexp"
	"strings"
)

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Weekdays are the canonical day names, Monday first.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ValidationError rejects a malformed schedule at write time.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateTimeOfDay checks a 24-hour "HH:MM" value. The hour must have two
// digits so each stored time has a single spelling.
func ValidateTimeOfDay(s string) error {
	if !timeOfDayRe.MatchString(s) {
		return &ValidationError{Field: "time", Message: fmt.Sprintf("%q is not a 24-hour HH:MM time", s)}
	}
	return nil
}

// NormalizeDays validates day names case-insensitively and returns them
// deduplicated in canonical form and order.
func NormalizeDays(days []string) ([]string, error) {
	if len(days) == 0 {
		return nil, &ValidationError{Field: "days", Message: "at least one day is required"}
	}
	selected := make(map[string]bool, len(days))
	for _, d := range days {
		canon := canonicalDay(d)
		if canon == "" {
			return nil, &ValidationError{Field: "days", Message: fmt.Sprintf("%q is not a day of the week", d)}
		}
		selected[canon] = true
	}
	out := make([]string, 0, len(selected))
	for _, d := range Weekdays {
		if selected[d] {
			out = append(out, d)
		}
	}
	return out, nil
}

func canonicalDay(d string) string {
	d = strings.TrimSpace(d)
	for _, w := range Weekdays {
		if strings.EqualFold(d, w) {
			return w
		}
	}
	return ""
}

// validateName requires a non-blank name.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "name is required"}
	}
	return name, nil
}
