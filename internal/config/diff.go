package config

import (
	"sort"
	"strings"

	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// SummarizeChange returns the changed section names and safe structured
// attrs for the reload log line. Secrets (bot token, events API key) are
// reported presence-only, never by value.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.BotDriver() != newCfg.BotDriver() ||
		strings.TrimSpace(oldCfg.Bot.Timeout) != strings.TrimSpace(newCfg.Bot.Timeout) ||
		(strings.TrimSpace(oldCfg.Bot.Token) != "") != (strings.TrimSpace(newCfg.Bot.Token) != "") {
		changed = append(changed, "bot")
		attrs = append(attrs,
			logx.String("bot.driver", newCfg.BotDriver()),
			logx.Bool("bot.token_set", strings.TrimSpace(newCfg.Bot.Token) != ""),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.ops_enabled", newCfg.Logging.Ops.Enabled),
		)
	}

	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(newCfg.Storage.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(newCfg.Storage.Path) != ""),
		)
	}

	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.String("scheduler.timezone", strings.TrimSpace(newCfg.Scheduler.Timezone)),
			logx.String("scheduler.fire_timeout", strings.TrimSpace(newCfg.Scheduler.FireTimeout)),
		)
	}

	if oldCfg.Events != newCfg.Events {
		changed = append(changed, "events")
		attrs = append(attrs,
			logx.Bool("events.configured", strings.TrimSpace(newCfg.Events.BaseURL) != ""),
			logx.Bool("events.api_key_set", strings.TrimSpace(newCfg.Events.APIKey) != ""),
		)
	}

	if oldCfg.Notify != newCfg.Notify {
		changed = append(changed, "notify")
		attrs = append(attrs,
			logx.Int("notify.rate_per_sec", newCfg.Notify.RatePerSec),
			logx.Int("notify.retry_max", newCfg.Notify.RetryMax),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
