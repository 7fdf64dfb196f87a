package schedule

import (
	"errors"
	"slices"
	"testing"
)

func TestValidateTimeOfDay(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"08:00", true},
		{"09:05", true},
		{"9:05", false},
		{"8:5", false},
		{"008:05", false},
		{"23:59", true},
		{"00:00", true},
		{"24:00", false},
		{"12:60", false},
		{"8am", false},
		{"", false},
		{"08:00:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateTimeOfDay(tt.in)
			if tt.valid && err != nil {
				t.Errorf("ValidateTimeOfDay(%q) = %v, want nil", tt.in, err)
			}
			if !tt.valid {
				var ve *ValidationError
				if !errors.As(err, &ve) || ve.Field != "time" {
					t.Errorf("ValidateTimeOfDay(%q) = %v, want time ValidationError", tt.in, err)
				}
			}
		})
	}
}

func TestNormalizeDays(t *testing.T) {
	got, err := NormalizeDays([]string{"friday", " MONDAY ", "Wednesday", "monday"})
	if err != nil {
		t.Fatalf("NormalizeDays: %v", err)
	}
	want := []string{"Monday", "Wednesday", "Friday"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeDays = %v, want %v", got, want)
	}
}

func TestNormalizeDays_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   []string
	}{
		{"empty", nil},
		{"unknown day", []string{"Monday", "Funday"}},
		{"abbreviation", []string{"Mon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeDays(tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != "days" {
				t.Errorf("NormalizeDays(%v) = %v, want days ValidationError", tt.in, err)
			}
		})
	}
}
