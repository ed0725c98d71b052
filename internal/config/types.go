package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lukadfagundes/bwaincell-sub001/internal/schedule"
)

// Config is the on-disk configuration. All duration fields are Go duration
// strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Bot       BotConfig       `json:"bot"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Events    EventsConfig    `json:"events,omitempty"`
	Notify    NotifyConfig    `json:"notify,omitempty"`
}

// BotConfig selects and configures the delivery platform.
//
// Driver "telegram" (the default) needs a token; "console" writes to stdout
// and is meant for dry runs.
type BotConfig struct {
	Driver  string `json:"driver,omitempty"`
	Token   string `json:"token,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Ops     LoggingOps  `json:"ops"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// LoggingOps mirrors warnings and errors into a chat channel.
type LoggingOps struct {
	Enabled    bool   `json:"enabled"`
	Channel    string `json:"channel,omitempty"` // "<chatID>" or "<chatID>:<threadID>"
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // default "sqlite"
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type SchedulerConfig struct {
	// Timezone is the default engine location. Announcement configs carry
	// their own timezone per tenant.
	Timezone    string `json:"timezone,omitempty"`
	FireTimeout string `json:"fire_timeout,omitempty"`
	HistorySize int    `json:"history_size,omitempty"`
}

// EventsConfig points at the local-events discovery API. Leaving base_url
// empty disables discovery; announcement fires are then skipped with a log.
type EventsConfig struct {
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type NotifyConfig struct {
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
	SendTimeout   string `json:"send_timeout,omitempty"`
}

const (
	DriverTelegram = "telegram"
	DriverConsole  = "console"
)

// BotDriver normalizes the configured driver, defaulting to telegram.
func (c *Config) BotDriver() string {
	d := strings.ToLower(strings.TrimSpace(c.Bot.Driver))
	if d == "" {
		return DriverTelegram
	}
	return d
}

// Validate performs the static checks that must hold before a config may be
// committed: known drivers, required fields, parseable durations, a known
// timezone. It is also the Watch validator, so a bad edit never reaches
// subscribers.
func (c *Config) Validate() error {
	switch c.BotDriver() {
	case DriverTelegram:
		if strings.TrimSpace(c.Bot.Token) == "" {
			return errors.New("bot.token: required for the telegram driver")
		}
	case DriverConsole:
	default:
		return fmt.Errorf("bot.driver: unknown driver %q", c.Bot.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path: required")
	}

	if tz := strings.TrimSpace(c.Scheduler.Timezone); tz != "" && !schedule.ValidTimezone(tz) {
		return fmt.Errorf("scheduler.timezone: unknown timezone %q", tz)
	}

	for _, f := range []struct {
		path string
		raw  string
	}{
		{"bot.timeout", c.Bot.Timeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"scheduler.fire_timeout", c.Scheduler.FireTimeout},
		{"events.timeout", c.Events.Timeout},
		{"notify.retry_base", c.Notify.RetryBase},
		{"notify.retry_max_delay", c.Notify.RetryMaxDelay},
		{"notify.send_timeout", c.Notify.SendTimeout},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}
