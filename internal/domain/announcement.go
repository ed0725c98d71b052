package domain

import (
	"strings"
	"time"

	"github.com/lukadfagundes/bwaincell-sub001/internal/schedule"
)

// AnnouncementConfig governs one tenant's weekly local-events broadcast.
// At most one is stored per tenant; disabling unregisters the job but keeps
// the row so the user's settings survive.
type AnnouncementConfig struct {
	TenantID  string
	ChannelID string
	Location  string

	Day    int // 0-6, Sunday=0
	Hour   int // 0-23
	Minute int // 0-59

	Timezone string // IANA name; the weekly trigger is evaluated here
	Enabled  bool

	LastAnnounced *time.Time
	UpdatedAt     time.Time
}

// Key returns the config's registry key.
func (c AnnouncementConfig) Key() string { return AnnounceKey(c.TenantID) }

func (c AnnouncementConfig) Validate() error {
	if strings.TrimSpace(c.TenantID) == "" {
		return &schedule.ValidationError{Field: "tenant_id", Value: c.TenantID, Reason: "required"}
	}
	if strings.TrimSpace(c.ChannelID) == "" {
		return &schedule.ValidationError{Field: "channel_id", Value: c.ChannelID, Reason: "required"}
	}
	if strings.TrimSpace(c.Location) == "" {
		return &schedule.ValidationError{Field: "location", Value: c.Location, Reason: "required"}
	}
	if c.Day < 0 || c.Day > 6 {
		return &schedule.ValidationError{Field: "day", Value: c.Day, Reason: "must be between 0 and 6"}
	}
	if c.Hour < 0 || c.Hour > 23 {
		return &schedule.ValidationError{Field: "hour", Value: c.Hour, Reason: "must be between 0 and 23"}
	}
	if c.Minute < 0 || c.Minute > 59 {
		return &schedule.ValidationError{Field: "minute", Value: c.Minute, Reason: "must be between 0 and 59"}
	}
	if !schedule.ValidTimezone(c.Timezone) {
		return &schedule.ValidationError{Field: "timezone", Value: c.Timezone, Reason: "unknown timezone"}
	}
	return nil
}

// CronExpr derives the weekly trigger expression.
func (c AnnouncementConfig) CronExpr() (string, error) {
	return schedule.BuildWeekly(c.Minute, c.Hour, c.Day)
}
