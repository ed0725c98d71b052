// Package scheduler owns the live timer and cron registrations derived from
// the store. The store is the source of truth; everything here can be rebuilt
// from it at any time.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lukadfagundes/bwaincell-sub001/internal/domain"
	"github.com/lukadfagundes/bwaincell-sub001/internal/eventbus"
	"github.com/lukadfagundes/bwaincell-sub001/internal/events"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// Store is the slice of the persistence layer the scheduler consumes.
type Store interface {
	ActiveReminders(ctx context.Context) ([]domain.ReminderJob, error)
	ClaimedReminders(ctx context.Context) ([]domain.ReminderJob, error)
	EnabledAnnouncementConfigs(ctx context.Context) ([]domain.AnnouncementConfig, error)
	Reminder(ctx context.Context, id string) (*domain.ReminderJob, error)
	AnnouncementConfig(ctx context.Context, tenantID string) (*domain.AnnouncementConfig, error)
	ClaimReminder(ctx context.Context, id string) (bool, error)
	DeleteReminder(ctx context.Context, id, tenantID string) error
	AdvanceRecurrence(ctx context.Context, id string) error
	MarkAnnounced(ctx context.Context, tenantID string, at time.Time) error
}

// Notifier delivers text to an opaque channel reference.
type Notifier interface {
	Send(ctx context.Context, channelID, text string) error
}

// EventSource discovers local events inside an announcement window.
type EventSource interface {
	Discover(ctx context.Context, location string, from, to time.Time) ([]events.Event, error)
}

type Config struct {
	// Timezone is the engine's default location; recurring reminders are
	// evaluated in it. Announcements carry their own per-tenant timezone.
	Timezone string
	// FireTimeout bounds each fire callback's store and notify calls.
	FireTimeout time.Duration
	// HistorySize caps the in-memory fire history ring.
	HistorySize int
}

type Deps struct {
	Store  Store
	Notify Notifier
	Events EventSource
	Bus    eventbus.Bus
	Log    logx.Logger
}

// FireRecord is one completed fire attempt, kept for the status surface.
type FireRecord struct {
	At   time.Time
	Key  string
	Kind string
	Err  string
}

// Scheduler turns persisted reminder jobs and announcement configs into live
// registrations and runs their fire callbacks. One live registration per key;
// registering an occupied key replaces the prior handle.
type Scheduler struct {
	cfg  Config
	deps Deps
	log  logx.Logger

	mu      sync.Mutex
	loc     *time.Location
	engine  *cron.Cron
	running bool

	parser cron.Parser
	reg    *registry

	// baseCtx parents every fire callback; Shutdown cancels it only after
	// the drain deadline passes.
	baseCtx    context.Context
	baseCancel context.CancelFunc
	fires      sync.WaitGroup

	hmu     sync.Mutex
	history []FireRecord
}

func New(cfg Config, deps Deps) *Scheduler {
	if cfg.FireTimeout <= 0 {
		cfg.FireTimeout = 2 * time.Minute
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Scheduler{
		cfg:    cfg,
		deps:   deps,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		reg:    newRegistry(),
	}
	s.loc = s.loadLocation(cfg.Timezone)
	s.engine = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	return s
}

func (s *Scheduler) loadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("unknown timezone, falling back to UTC", logx.String("timezone", tz), logx.Err(err))
		return time.UTC
	}
	return loc
}

// Start runs the engine, re-sends reminders a previous process claimed but
// never finished, and loads every active job from the store. Individual bad
// jobs are logged and skipped; a failed store read aborts.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.engine.Start()
	tz := s.loc.String()
	s.mu.Unlock()

	s.log.Info("scheduler started", logx.String("timezone", tz))
	s.recoverClaimed(ctx)
	return s.loadJobs(ctx)
}

func (s *Scheduler) loadJobs(ctx context.Context) error {
	jobs, err := s.deps.Store.ActiveReminders(ctx)
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	reminders := 0
	for _, job := range jobs {
		if err := s.ScheduleReminder(job); err != nil {
			s.log.Warn("skipping reminder", logx.String("job", job.Key()), logx.Err(err))
			continue
		}
		reminders++
	}

	cfgs, err := s.deps.Store.EnabledAnnouncementConfigs(ctx)
	if err != nil {
		return fmt.Errorf("load announcement configs: %w", err)
	}
	announcements := 0
	for _, cfg := range cfgs {
		if err := s.ScheduleAnnouncement(cfg); err != nil {
			s.log.Warn("skipping announcement config", logx.String("job", cfg.Key()), logx.Err(err))
			continue
		}
		announcements++
	}

	s.log.Info("schedule loaded",
		logx.Int("reminders", reminders),
		logx.Int("announcements", announcements),
	)
	return nil
}

// Shutdown stops the engine, cancels every registration and waits for
// in-flight fires until ctx expires; stragglers are then cut off via the
// fire context.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	engine := s.engine
	s.mu.Unlock()

	s.reg.stopAll()
	stopCtx := engine.Stop()

	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		s.fires.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.baseCancel()
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.baseCancel()
		s.log.Warn("scheduler stopped with fires in flight")
		return ctx.Err()
	}
}

// Rebuild tears down every registration, restarts the engine in the new
// default timezone and reloads the store. Used on config hot reload.
func (s *Scheduler) Rebuild(ctx context.Context, cfg Config) error {
	if cfg.FireTimeout <= 0 {
		cfg.FireTimeout = 2 * time.Minute
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}

	s.mu.Lock()
	running := s.running
	old := s.engine
	s.cfg = cfg
	s.loc = s.loadLocation(cfg.Timezone)
	s.engine = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	s.mu.Unlock()

	s.reg.stopAll()
	if running {
		<-old.Stop().Done()
		s.engine.Start()
		s.log.Info("scheduler rebuilt", logx.String("timezone", s.loc.String()))
		return s.loadJobs(ctx)
	}
	return nil
}

// beginFire registers an in-flight fire. It refuses once Shutdown has begun,
// so the drain WaitGroup is complete the moment running flips false.
func (s *Scheduler) beginFire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.fires.Add(1)
	return true
}

func (s *Scheduler) fireContext() (context.Context, context.CancelFunc) {
	s.mu.Lock()
	d := s.cfg.FireTimeout
	s.mu.Unlock()
	return context.WithTimeout(s.baseCtx, d)
}

func (s *Scheduler) recoverFire(kind, key string) {
	if r := recover(); r != nil {
		s.log.Error("panic in fire callback",
			logx.String("kind", kind),
			logx.String("job", key),
			logx.Any("panic", r),
			logx.String("stack", string(debug.Stack())),
		)
	}
}

func (s *Scheduler) publish(typ string, ev eventbus.JobEvent) {
	if s.deps.Bus == nil {
		return
	}
	s.deps.Bus.Publish(eventbus.Event{Type: typ, Time: time.Now(), Data: ev})
}

func (s *Scheduler) record(kind, key string, err error) {
	rec := FireRecord{At: time.Now(), Key: key, Kind: kind}
	if err != nil {
		rec.Err = err.Error()
	}
	s.mu.Lock()
	limit := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, rec)
	if len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
	s.hmu.Unlock()
}

// JobStatus is one live registration in a Snapshot.
type JobStatus struct {
	Key  string
	Next time.Time
}

// Snapshot is a point-in-time status view.
type Snapshot struct {
	Running  bool
	Timezone string
	Jobs     []JobStatus
	History  []FireRecord
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{Running: s.running, Timezone: s.loc.String()}
	s.mu.Unlock()

	for _, e := range s.reg.entries() {
		snap.Jobs = append(snap.Jobs, JobStatus{Key: e.key, Next: e.h.next()})
	}
	s.hmu.Lock()
	snap.History = append([]FireRecord(nil), s.history...)
	s.hmu.Unlock()
	return snap
}
