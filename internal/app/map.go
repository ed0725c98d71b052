package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lukadfagundes/bwaincell-sub001/internal/config"
	"github.com/lukadfagundes/bwaincell-sub001/internal/events"
	"github.com/lukadfagundes/bwaincell-sub001/internal/notify"
	"github.com/lukadfagundes/bwaincell-sub001/internal/scheduler"
	"github.com/lukadfagundes/bwaincell-sub001/internal/storage"
	kit "github.com/lukadfagundes/bwaincell-sub001/internal/transport"
	"github.com/lukadfagundes/bwaincell-sub001/internal/transport/console"
	"github.com/lukadfagundes/bwaincell-sub001/internal/transport/telegram"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// The map helpers translate the on-disk config into component configs.
// Durations live as strings in the file; parse errors carry the field path.

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Ops: logx.OpsConfig{
			Enabled:    cfg.Logging.Ops.Enabled,
			Channel:    cfg.Logging.Ops.Channel,
			MinLevel:   cfg.Logging.Ops.MinLevel,
			RatePerSec: cfg.Logging.Ops.RatePerSec,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	path := strings.TrimSpace(cfg.Storage.Path)
	if path == "" {
		return storage.Config{}, fmt.Errorf("storage.path is required")
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        path,
		BusyTimeout: busy,
	}, nil
}

func mapNotifyConfig(cfg *config.Config) (notify.Config, error) {
	retryBase, err := config.ParseDurationField("notify.retry_base", cfg.Notify.RetryBase)
	if err != nil {
		return notify.Config{}, err
	}
	retryMaxDelay, err := config.ParseDurationField("notify.retry_max_delay", cfg.Notify.RetryMaxDelay)
	if err != nil {
		return notify.Config{}, err
	}
	sendTimeout, err := config.ParseDurationField("notify.send_timeout", cfg.Notify.SendTimeout)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		RatePerSec:    cfg.Notify.RatePerSec,
		RetryMax:      cfg.Notify.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMaxDelay,
		SendTimeout:   sendTimeout,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	fireTimeout, err := config.ParseDurationField("scheduler.fire_timeout", cfg.Scheduler.FireTimeout)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Timezone:    cfg.Scheduler.Timezone,
		FireTimeout: fireTimeout,
		HistorySize: cfg.Scheduler.HistorySize,
	}, nil
}

// buildAdapter constructs the outbound transport for the configured driver.
func buildAdapter(cfg *config.Config, log logx.Logger) (kit.Adapter, error) {
	switch cfg.BotDriver() {
	case config.DriverConsole:
		return console.New(logx.Stdout()), nil
	case config.DriverTelegram:
		timeout, err := config.ParseDurationOrDefault("bot.timeout", cfg.Bot.Timeout, 30*time.Second)
		if err != nil {
			return nil, err
		}
		return telegram.New(telegram.Config{
			Token:   cfg.Bot.Token,
			Timeout: timeout,
		}, log)
	default:
		return nil, fmt.Errorf("unknown bot.driver: %s", cfg.Bot.Driver)
	}
}

// buildEventSource returns the discovery client, or a disabled source when
// events.base_url is missing. Announcement fires then skip with a clear
// reason instead of sending an empty digest.
func buildEventSource(cfg *config.Config, log logx.Logger) (scheduler.EventSource, error) {
	if strings.TrimSpace(cfg.Events.BaseURL) == "" {
		return disabledEvents{}, nil
	}
	timeout, err := config.ParseDurationField("events.timeout", cfg.Events.Timeout)
	if err != nil {
		return nil, err
	}
	return events.NewClient(events.Config{
		BaseURL: cfg.Events.BaseURL,
		APIKey:  cfg.Events.APIKey,
		Timeout: timeout,
	}, log)
}

type disabledEvents struct{}

func (disabledEvents) Discover(ctx context.Context, location string, from, to time.Time) ([]events.Event, error) {
	return nil, errors.New("event discovery is not configured (events.base_url)")
}
