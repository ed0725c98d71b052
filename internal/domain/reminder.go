// Package domain defines the records the scheduler and store share:
// reminder jobs and per-tenant announcement configs.
package domain

import (
	"strings"
	"time"

	"github.com/lukadfagundes/bwaincell-sub001/internal/schedule"
)

// Cadence is a reminder's recurrence pattern.
type Cadence string

const (
	CadenceOnce    Cadence = "once"
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
	CadenceYearly  Cadence = "yearly"
)

func ParseCadence(s string) (Cadence, error) {
	c := Cadence(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &schedule.ValidationError{Field: "cadence", Value: s, Reason: "must be once, daily, weekly, monthly or yearly"}
	}
	return c, nil
}

func (c Cadence) Valid() bool {
	switch c {
	case CadenceOnce, CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceYearly:
		return true
	}
	return false
}

// Recurring reports whether the cadence re-fires after each occurrence.
func (c Cadence) Recurring() bool { return c.Valid() && c != CadenceOnce }

// Registry key prefixes. One live handle per key at any time.
const (
	reminderKeyPrefix = "reminder:"
	announceKeyPrefix = "announce:"
)

func ReminderKey(id string) string       { return reminderKeyPrefix + id }
func AnnounceKey(tenantID string) string { return announceKeyPrefix + tenantID }

// ReminderJob is one user's scheduled notification.
//
// Field usage depends on Cadence: once relies on NextTrigger alone; daily
// uses Hour/Minute; weekly adds DayOfWeek; monthly adds DayOfMonth; yearly
// adds DayOfMonth and Month.
type ReminderJob struct {
	ID        string
	TenantID  string
	ChannelID string
	UserID    string
	Message   string
	Cadence   Cadence

	Hour       int // 0-23
	Minute     int // 0-59
	DayOfWeek  int // 0-6, Sunday=0
	DayOfMonth int // 1-31
	Month      int // 1-12

	NextTrigger time.Time  // absolute fire time, once only
	ClaimedAt   *time.Time // set while a once fire is in flight; survives a crash
	CreatedAt   time.Time
}

// Key returns the job's registry key.
func (j ReminderJob) Key() string { return ReminderKey(j.ID) }

// Validate enforces the cadence-field invariant. Staleness of a once job is
// not a validation concern; it is handled at scheduling time.
func (j ReminderJob) Validate() error {
	if !j.Cadence.Valid() {
		return &schedule.ValidationError{Field: "cadence", Value: string(j.Cadence), Reason: "must be once, daily, weekly, monthly or yearly"}
	}
	if strings.TrimSpace(j.TenantID) == "" {
		return &schedule.ValidationError{Field: "tenant_id", Value: j.TenantID, Reason: "required"}
	}
	if strings.TrimSpace(j.ChannelID) == "" {
		return &schedule.ValidationError{Field: "channel_id", Value: j.ChannelID, Reason: "required"}
	}
	if strings.TrimSpace(j.Message) == "" {
		return &schedule.ValidationError{Field: "message", Value: j.Message, Reason: "required"}
	}

	if j.Cadence == CadenceOnce {
		if j.NextTrigger.IsZero() {
			return &schedule.ValidationError{Field: "next_trigger", Value: j.NextTrigger, Reason: "required for once reminders"}
		}
		return nil
	}

	if j.Hour < 0 || j.Hour > 23 {
		return &schedule.ValidationError{Field: "hour", Value: j.Hour, Reason: "must be between 0 and 23"}
	}
	if j.Minute < 0 || j.Minute > 59 {
		return &schedule.ValidationError{Field: "minute", Value: j.Minute, Reason: "must be between 0 and 59"}
	}
	switch j.Cadence {
	case CadenceWeekly:
		if j.DayOfWeek < 0 || j.DayOfWeek > 6 {
			return &schedule.ValidationError{Field: "day_of_week", Value: j.DayOfWeek, Reason: "must be between 0 and 6"}
		}
	case CadenceMonthly:
		if j.DayOfMonth < 1 || j.DayOfMonth > 31 {
			return &schedule.ValidationError{Field: "day_of_month", Value: j.DayOfMonth, Reason: "must be between 1 and 31"}
		}
	case CadenceYearly:
		if j.DayOfMonth < 1 || j.DayOfMonth > 31 {
			return &schedule.ValidationError{Field: "day_of_month", Value: j.DayOfMonth, Reason: "must be between 1 and 31"}
		}
		if j.Month < 1 || j.Month > 12 {
			return &schedule.ValidationError{Field: "month", Value: j.Month, Reason: "must be between 1 and 12"}
		}
	}
	return nil
}

// CronExpr derives the job's cron expression for recurring cadences.
func (j ReminderJob) CronExpr() (string, error) {
	switch j.Cadence {
	case CadenceDaily:
		return schedule.BuildDaily(j.Minute, j.Hour)
	case CadenceWeekly:
		return schedule.BuildWeekly(j.Minute, j.Hour, j.DayOfWeek)
	case CadenceMonthly:
		return schedule.BuildMonthly(j.Minute, j.Hour, j.DayOfMonth)
	case CadenceYearly:
		return schedule.BuildYearly(j.Minute, j.Hour, j.DayOfMonth, j.Month)
	default:
		return "", &schedule.ValidationError{Field: "cadence", Value: string(j.Cadence), Reason: "no cron form for this cadence"}
	}
}
