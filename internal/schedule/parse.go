package schedule

import (
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses wall-clock strings of the form "H:MM" or "HH:MM".
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	raw := strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, 0, &ValidationError{Field: "time", Value: s, Reason: "expected HH:MM"}
	}
	h, herr := strconv.Atoi(hh)
	if herr != nil || h < 0 || h > 23 {
		return 0, 0, &ValidationError{Field: "hour", Value: hh, Reason: "must be between 0 and 23"}
	}
	m, merr := strconv.Atoi(mm)
	if merr != nil || m < 0 || m > 59 {
		return 0, 0, &ValidationError{Field: "minute", Value: mm, Reason: "must be between 0 and 59"}
	}
	return h, m, nil
}

var dayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseDayName maps day names and common abbreviations to a weekday.
// Sunday=0, matching the cron day-of-week field.
func ParseDayName(name string) (time.Weekday, error) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &ValidationError{Field: "day", Value: name, Reason: "unknown day name"}
	}
	return d, nil
}

// LoadLocation resolves an IANA timezone name against the platform database.
// The empty string is rejected rather than defaulting to UTC.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, &ValidationError{Field: "timezone", Value: tz, Reason: "empty"}
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &ValidationError{Field: "timezone", Value: tz, Reason: "unknown timezone"}
	}
	return loc, nil
}

// ValidTimezone reports whether tz is known to the timezone database.
func ValidTimezone(tz string) bool {
	_, err := LoadLocation(tz)
	return err == nil
}
