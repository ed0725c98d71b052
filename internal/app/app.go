// Package app is the composition root. It wires config, logging, transport,
// storage, notify, event discovery and the scheduler together, runs the hot
// reload loop, and owns ordered shutdown.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/lukadfagundes/bwaincell-sub001/internal/config"
	"github.com/lukadfagundes/bwaincell-sub001/internal/eventbus"
	"github.com/lukadfagundes/bwaincell-sub001/internal/notify"
	"github.com/lukadfagundes/bwaincell-sub001/internal/runtime/supervisor"
	"github.com/lukadfagundes/bwaincell-sub001/internal/scheduler"
	"github.com/lukadfagundes/bwaincell-sub001/internal/storage"
	kit "github.com/lukadfagundes/bwaincell-sub001/internal/transport"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// StopReason names why the process is shutting down; it goes into the
// stopping log line.
type StopReason string

const (
	StopSignal StopReason = "signal"
	StopFatal  StopReason = "fatal-error"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	bus   eventbus.Bus
	store storage.Store

	adapter kit.Adapter
	notif   *notify.Service
	sched   *scheduler.Scheduler
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	// The adapter exists before the logging service; the ops sink delivers
	// through it. Bootstrap its logger from the console.
	bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "transport"))
	adapter, err := buildAdapter(cfg, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg), adapter)
	log = log.With(logx.String("comp", "app"))

	// Parse every component config before opening anything so a bad file
	// fails fast without leaving an open database behind.
	storeCfg, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	notifyCfg, err := mapNotifyConfig(cfg)
	if err != nil {
		return nil, err
	}
	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()

	store, err := storage.Open(storeCfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	evSrc, err := buildEventSource(cfg, log.With(logx.String("comp", "events")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if strings.TrimSpace(cfg.Events.BaseURL) == "" {
		log.Info("event discovery disabled (events.base_url not set)")
	}

	notifSvc := notify.New(notifyCfg, adapter, log.With(logx.String("comp", "notify")))

	sched := scheduler.New(schedCfg, scheduler.Deps{
		Store:  store,
		Notify: notifSvc,
		Events: evSrc,
		Bus:    bus,
		Log:    log.With(logx.String("comp", "scheduler")),
	})

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		adapter: adapter,
		notif:   notifSvc,
		sched:   sched,
	}, nil
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// Reloads are transactional: the watcher validates before commit and
	// publish, so subscribers only ever see configs that pass Validate.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(ctx context.Context, cfg *config.Config) error {
		return cfg.Validate()
	})

	if err := a.sched.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// Mirror job lifecycle events at debug level. Components that need the
	// bus subscribe themselves.
	busCh, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(ctx context.Context) {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-busCh:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(ctx context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(ctx, sub)
	})

	a.sup.Go("config.watch", func(ctx context.Context) error {
		return a.cfgm.Watch(ctx)
	})

	a.notifySystemd()

	a.log.Info("app started", logx.String("driver", a.cfgm.Get().BotDriver()))
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts; only the newest config matters.
		DRAIN:
			for {
				select {
				case newer, ok := <-sub:
					if !ok {
						break DRAIN
					}
					if newer != nil {
						newCfg = newer
					}
				default:
					break DRAIN
				}
			}
			a.applyReload(ctx, lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyReload(ctx context.Context, oldCfg, newCfg *config.Config) {
	changed, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(changed) == 0 {
		a.log.Debug("config reload received, no effective changes")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	for _, section := range changed {
		switch section {
		case "logging":
			a.logs.Apply(mapLogConfig(newCfg))
		case "notify":
			ncfg, err := mapNotifyConfig(newCfg)
			if err != nil {
				a.log.Warn("invalid notify config; keeping previous", logx.Err(err))
				continue
			}
			a.notif.Apply(ncfg)
		case "scheduler":
			scfg, err := mapSchedulerConfig(newCfg)
			if err != nil {
				a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
				continue
			}
			if err := a.sched.Rebuild(ctx, scfg); err != nil {
				a.log.Warn("scheduler rebuild failed", logx.Err(err))
			}
		case "bot", "storage", "events":
			a.log.Warn("config change needs a restart to take effect",
				logx.String("section", section))
		}
	}

	a.log.Info("config reloaded", fields...)
}

// notifySystemd reports readiness and starts the watchdog pinger when running
// under systemd with Type=notify. Outside systemd both calls are no-ops.
func (a *App) notifySystemd() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		a.log.Warn("watchdog detection failed", logx.Err(err))
		return
	}
	if interval <= 0 {
		return
	}
	a.sup.Go0("systemd.watchdog", func(ctx context.Context) {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
	a.log.Info("systemd watchdog enabled", logx.Duration("interval", interval))
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// step bounds each shutdown stage so one component cannot stall the
	// whole stop. A stage that overruns is logged again when it finishes.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name),
				logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)))
			go func() {
				err := <-done
				if err != nil {
					a.log.Warn("stop step finished after deadline",
						logx.String("name", name), logx.Err(err),
						logx.Duration("took", time.Since(start)))
				} else {
					a.log.Info("stop step finished after deadline",
						logx.String("name", name),
						logx.Duration("took", time.Since(start)))
				}
			}()
		}
	}

	step("scheduler", 5*time.Second, func(c context.Context) error { return a.sched.Shutdown(c) })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Close(c) })
	step("storage", 1*time.Second, func(c context.Context) error { return a.store.Close() })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
