package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		hour   int
		minute int
	}{
		{"9:05", 9, 5},
		{"09:05", 9, 5},
		{"0:00", 0, 0},
		{"23:59", 23, 59},
		{" 12:30 ", 12, 30},
	}
	for _, tt := range tests {
		h, m, err := ParseTimeOfDay(tt.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) error: %v", tt.in, err)
		}
		if h != tt.hour || m != tt.minute {
			t.Fatalf("ParseTimeOfDay(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
		}
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "12", "12:5", "12:345", "24:00", "12:60", "ab:cd", "12:00:00", "123:00"} {
		_, _, err := ParseTimeOfDay(in)
		if err == nil {
			t.Fatalf("ParseTimeOfDay(%q): expected error", in)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("ParseTimeOfDay(%q): error %v is not a ValidationError", in, err)
		}
	}
}

func TestParseDayName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"sunday", time.Sunday},
		{"sun", time.Sunday},
		{"Monday", time.Monday},
		{"MON", time.Monday},
		{"tuesday", time.Tuesday},
		{"tue", time.Tuesday},
		{"Tues", time.Tuesday},
		{"wednesday", time.Wednesday},
		{"wed", time.Wednesday},
		{"THURSDAY", time.Thursday},
		{"thu", time.Thursday},
		{"thur", time.Thursday},
		{"thurs", time.Thursday},
		{"friday", time.Friday},
		{"fri", time.Friday},
		{"saturday", time.Saturday},
		{"sat", time.Saturday},
		{" saturday ", time.Saturday},
	}
	for _, tt := range tests {
		got, err := ParseDayName(tt.in)
		if err != nil {
			t.Fatalf("ParseDayName(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDayName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDayNameInvalid(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "funday", "m", "montag", "7"} {
		_, err := ParseDayName(in)
		if err == nil {
			t.Fatalf("ParseDayName(%q): expected error", in)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("ParseDayName(%q): error %v is not a ValidationError", in, err)
		}
	}
}

func TestValidTimezone(t *testing.T) {
	t.Parallel()
	for _, tz := range []string{"UTC", "America/New_York", "Europe/Berlin"} {
		if !ValidTimezone(tz) {
			t.Fatalf("ValidTimezone(%q) = false", tz)
		}
	}
	for _, tz := range []string{"", "Not/AZone", "Mars"} {
		if ValidTimezone(tz) {
			t.Fatalf("ValidTimezone(%q) = true", tz)
		}
	}
}

func TestLoadLocationRejectsEmpty(t *testing.T) {
	t.Parallel()
	// time.LoadLocation("") silently resolves to UTC; ours must not.
	if _, err := LoadLocation(""); err == nil {
		t.Fatal("expected error for empty timezone")
	}
}
