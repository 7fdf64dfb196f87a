package schedule

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	all := Weekdays
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	tests := []struct {
		name string
		now  time.Time
		tod  string
		days []string
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC),
			tod:  "08:00",
			days: all,
			want: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed today",
			now:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			tod:  "08:00",
			days: all,
			want: time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at slot moves to tomorrow",
			now:  time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
			tod:  "08:00",
			days: all,
			want: time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "skips weekend",
			now:  time.Date(2026, 10, 23, 9, 0, 0, 0, time.UTC),
			tod:  "08:00",
			days: weekdays,
			want: time.Date(2026, 10, 26, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "single day a week later",
			now:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			tod:  "08:00",
			days: []string{"Monday"},
			want: time.Date(2026, 10, 26, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "evening slot",
			now:  time.Date(2026, 10, 19, 18, 29, 0, 0, time.UTC),
			tod:  "18:30",
			days: []string{"Monday"},
			want: time.Date(2026, 10, 19, 18, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, tt.tod, tt.days)
			if got == nil {
				t.Fatal("NextRun returned nil")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextRun_NoDays(t *testing.T) {
	if got := NextRun(time.Now(), "08:00", nil); got != nil {
		t.Errorf("NextRun with no days = %v, want nil", got)
	}
}

func TestNextRun_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on Tuesday is still 21:00 Monday in loc.
	now := time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC).In(loc)

	got := NextRun(now, "22:00", []string{"Monday"})
	want := time.Date(2026, 10, 19, 22, 0, 0, 0, loc)
	if got == nil || !got.Equal(want) {
		t.Errorf("NextRun = %v, want %v", got, want)
	}
}
