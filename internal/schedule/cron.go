package schedule

import "fmt"

// ValidationError reports scheduling input the caller got wrong. It surfaces
// synchronously at job creation and is never retried.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &ValidationError{Field: field, Value: v, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return nil
}

// BuildDaily returns the 5-field cron expression firing every day at
// hour:minute.
func BuildDaily(minute, hour int) (string, error) {
	if err := checkRange("minute", minute, 0, 59); err != nil {
		return "", err
	}
	if err := checkRange("hour", hour, 0, 23); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// BuildWeekly returns the expression firing weekly on dayOfWeek (Sunday=0)
// at hour:minute.
func BuildWeekly(minute, hour, dayOfWeek int) (string, error) {
	if err := checkRange("minute", minute, 0, 59); err != nil {
		return "", err
	}
	if err := checkRange("hour", hour, 0, 23); err != nil {
		return "", err
	}
	if err := checkRange("day_of_week", dayOfWeek, 0, 6); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * %d", minute, hour, dayOfWeek), nil
}

// BuildMonthly returns the expression firing monthly on dayOfMonth at
// hour:minute. Days 29-31 are accepted; months without that date are skipped
// by the cron engine.
func BuildMonthly(minute, hour, dayOfMonth int) (string, error) {
	if err := checkRange("minute", minute, 0, 59); err != nil {
		return "", err
	}
	if err := checkRange("hour", hour, 0, 23); err != nil {
		return "", err
	}
	if err := checkRange("day_of_month", dayOfMonth, 1, 31); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d %d * *", minute, hour, dayOfMonth), nil
}

// BuildYearly returns the expression firing once a year on month/dayOfMonth
// at hour:minute. Feb 29 only fires on leap years.
func BuildYearly(minute, hour, dayOfMonth, month int) (string, error) {
	if err := checkRange("minute", minute, 0, 59); err != nil {
		return "", err
	}
	if err := checkRange("hour", hour, 0, 23); err != nil {
		return "", err
	}
	if err := checkRange("day_of_month", dayOfMonth, 1, 31); err != nil {
		return "", err
	}
	if err := checkRange("month", month, 1, 12); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d %d %d *", minute, hour, dayOfMonth, month), nil
}
