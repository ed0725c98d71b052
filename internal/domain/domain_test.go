package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/lukadfagundes/bwaincell-sub001/internal/schedule"
)

func validWeekly() ReminderJob {
	return ReminderJob{
		ID:        "r1",
		TenantID:  "guild-1",
		ChannelID: "42",
		Message:   "standup",
		Cadence:   CadenceWeekly,
		Hour:      12,
		Minute:    0,
		DayOfWeek: 1,
	}
}

func TestParseCadence(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Cadence{
		"once":    CadenceOnce,
		"Daily":   CadenceDaily,
		" WEEKLY ": CadenceWeekly,
		"monthly": CadenceMonthly,
		"yearly":  CadenceYearly,
	} {
		got, err := ParseCadence(in)
		if err != nil {
			t.Fatalf("ParseCadence(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCadence(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseCadence("fortnightly"); err == nil {
		t.Fatal("expected error for unknown cadence")
	}
}

func TestReminderValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*ReminderJob)
		field  string
	}{
		{"bad cadence", func(j *ReminderJob) { j.Cadence = "hourly" }, "cadence"},
		{"missing tenant", func(j *ReminderJob) { j.TenantID = "" }, "tenant_id"},
		{"missing channel", func(j *ReminderJob) { j.ChannelID = " " }, "channel_id"},
		{"missing message", func(j *ReminderJob) { j.Message = "" }, "message"},
		{"hour out of range", func(j *ReminderJob) { j.Hour = 24 }, "hour"},
		{"minute out of range", func(j *ReminderJob) { j.Minute = 60 }, "minute"},
		{"dow out of range", func(j *ReminderJob) { j.DayOfWeek = 7 }, "day_of_week"},
		{
			"monthly without day", func(j *ReminderJob) {
				j.Cadence = CadenceMonthly
				j.DayOfMonth = 0
			}, "day_of_month",
		},
		{
			"yearly without month", func(j *ReminderJob) {
				j.Cadence = CadenceYearly
				j.DayOfMonth = 15
				j.Month = 0
			}, "month",
		},
		{
			"once without trigger", func(j *ReminderJob) {
				j.Cadence = CadenceOnce
				j.NextTrigger = time.Time{}
			}, "next_trigger",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			j := validWeekly()
			tt.mutate(&j)
			err := j.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *schedule.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	if err := validWeekly().Validate(); err != nil {
		t.Fatalf("valid weekly job rejected: %v", err)
	}
	once := validWeekly()
	once.Cadence = CadenceOnce
	once.NextTrigger = time.Now().Add(time.Hour)
	if err := once.Validate(); err != nil {
		t.Fatalf("valid once job rejected: %v", err)
	}
}

func TestReminderCronExpr(t *testing.T) {
	t.Parallel()
	weekly := validWeekly()
	expr, err := weekly.CronExpr()
	if err != nil {
		t.Fatalf("CronExpr: %v", err)
	}
	if expr != "0 12 * * 1" {
		t.Fatalf("weekly expr = %q", expr)
	}

	monthly := validWeekly()
	monthly.Cadence = CadenceMonthly
	monthly.Hour, monthly.Minute, monthly.DayOfMonth = 14, 30, 15
	if expr, _ = monthly.CronExpr(); expr != "30 14 15 * *" {
		t.Fatalf("monthly expr = %q", expr)
	}

	yearly := validWeekly()
	yearly.Cadence = CadenceYearly
	yearly.Hour, yearly.Minute, yearly.DayOfMonth, yearly.Month = 0, 0, 31, 12
	if expr, _ = yearly.CronExpr(); expr != "0 0 31 12 *" {
		t.Fatalf("yearly expr = %q", expr)
	}

	once := validWeekly()
	once.Cadence = CadenceOnce
	if _, err := once.CronExpr(); err == nil {
		t.Fatal("once cadence must not produce a cron expression")
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()
	j := ReminderJob{ID: "abc"}
	if j.Key() != "reminder:abc" {
		t.Fatalf("reminder key = %q", j.Key())
	}
	c := AnnouncementConfig{TenantID: "guild-9"}
	if c.Key() != "announce:guild-9" {
		t.Fatalf("announce key = %q", c.Key())
	}
}

func TestAnnouncementValidate(t *testing.T) {
	t.Parallel()
	valid := AnnouncementConfig{
		TenantID:  "guild-1",
		ChannelID: "42",
		Location:  "Portland",
		Day:       1,
		Hour:      12,
		Minute:    0,
		Timezone:  "America/Los_Angeles",
		Enabled:   true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := valid
	bad.Timezone = "Mars/Olympus"
	err := bad.Validate()
	var verr *schedule.ValidationError
	if !errors.As(err, &verr) || verr.Field != "timezone" {
		t.Fatalf("expected timezone validation error, got %v", err)
	}

	bad = valid
	bad.Day = 9
	if err := bad.Validate(); err == nil {
		t.Fatal("expected day validation error")
	}
}
