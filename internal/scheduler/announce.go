package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lukadfagundes/bwaincell-sub001/internal/domain"
	"github.com/lukadfagundes/bwaincell-sub001/internal/eventbus"
	"github.com/lukadfagundes/bwaincell-sub001/internal/events"
	"github.com/lukadfagundes/bwaincell-sub001/internal/schedule"
	"github.com/lukadfagundes/bwaincell-sub001/internal/storage"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// inLocation evaluates an inner schedule in a fixed location regardless of
// the engine's own location. Announcements use it so each tenant's weekly
// slot tracks that tenant's wall clock across DST shifts.
type inLocation struct {
	loc   *time.Location
	inner cron.Schedule
}

func (l inLocation) Next(t time.Time) time.Time { return l.inner.Next(t.In(l.loc)) }

// ScheduleAnnouncement registers cfg's weekly digest, replacing any prior
// registration for the tenant. The fire callback re-reads the config from the
// store, so only the slot (day, time, timezone) is captured here.
func (s *Scheduler) ScheduleAnnouncement(cfg domain.AnnouncementConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := schedule.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	expr, err := cfg.CronExpr()
	if err != nil {
		return err
	}
	sched, err := s.parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse %q: %w", expr, err)
	}

	key := cfg.Key()
	tenantID := cfg.TenantID
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	h := &entryHandle{engine: engine}
	s.reg.register(key, h)
	h.arm(engine.Schedule(inLocation{loc: loc, inner: sched}, cron.FuncJob(func() { s.fireAnnouncement(tenantID, h) })))

	s.publish(eventbus.TypeJobRegistered, eventbus.JobEvent{Key: key, TenantID: tenantID, Detail: "announcement"})
	s.log.Debug("announcement scheduled",
		logx.String("job", key),
		logx.String("cron", expr),
		logx.String("timezone", cfg.Timezone),
	)
	return nil
}

// fireAnnouncement runs on the cron goroutine once per weekly slot. The
// config is re-read fresh so channel, location and enabled changes take
// effect without re-registration. Every failure is logged and the
// registration survives, except a missing or disabled config, which
// unregisters itself.
func (s *Scheduler) fireAnnouncement(tenantID string, h *entryHandle) {
	if !s.beginFire() {
		return
	}
	defer s.fires.Done()

	key := domain.AnnounceKey(tenantID)
	defer s.recoverFire("announcement", key)

	ctx, cancel := s.fireContext()
	defer cancel()

	cfg, err := s.deps.Store.AnnouncementConfig(ctx, tenantID)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Info("announcement config gone, unregistering", logx.String("job", key))
		s.reg.removeIf(key, h)
		s.publish(eventbus.TypeJobRemoved, eventbus.JobEvent{Key: key, TenantID: tenantID, Detail: "config removed"})
		return
	}
	if err != nil {
		s.skipAnnouncement(key, tenantID, fmt.Errorf("config read: %w", err))
		return
	}
	if !cfg.Enabled {
		s.log.Info("announcement disabled, unregistering", logx.String("job", key))
		s.reg.removeIf(key, h)
		s.publish(eventbus.TypeJobRemoved, eventbus.JobEvent{Key: key, TenantID: tenantID, Detail: "disabled"})
		return
	}

	loc, err := schedule.LoadLocation(cfg.Timezone)
	if err != nil {
		s.skipAnnouncement(key, tenantID, err)
		return
	}
	w := schedule.EventWindow(time.Now(), loc)

	evs, err := s.deps.Events.Discover(ctx, cfg.Location, w.Start, w.End)
	if err != nil {
		s.skipAnnouncement(key, tenantID, fmt.Errorf("discover: %w", err))
		return
	}
	text := events.FormatDigest(evs, cfg.Location, w)
	if err := s.deps.Notify.Send(ctx, cfg.ChannelID, text); err != nil {
		s.skipAnnouncement(key, tenantID, fmt.Errorf("send: %w", err))
		return
	}
	if err := s.deps.Store.MarkAnnounced(ctx, tenantID, time.Now().UTC()); err != nil {
		// The digest went out; bookkeeping catches up on the next fire.
		s.log.Warn("mark announced failed", logx.String("job", key), logx.Err(err))
	}

	s.record("announcement", key, nil)
	s.publish(eventbus.TypeAnnouncementFired, eventbus.JobEvent{Key: key, TenantID: tenantID})
	s.log.Info("announcement fired",
		logx.String("job", key),
		logx.Int("events", len(evs)),
	)
}

func (s *Scheduler) skipAnnouncement(key, tenantID string, err error) {
	s.log.Error("announcement skipped", logx.String("job", key), logx.Err(err))
	s.record("announcement", key, err)
	s.publish(eventbus.TypeAnnouncementSkipped, eventbus.JobEvent{Key: key, TenantID: tenantID, Detail: err.Error()})
}

// UpsertEventConfig re-fetches the tenant's announcement config and registers
// it. Missing or disabled configs remove any live registration instead, so
// the call is idempotent over every config state.
func (s *Scheduler) UpsertEventConfig(ctx context.Context, tenantID string) error {
	cfg, err := s.deps.Store.AnnouncementConfig(ctx, tenantID)
	if errors.Is(err, storage.ErrNotFound) {
		s.RemoveEventConfig(tenantID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("announcement config %s: %w", tenantID, err)
	}
	if !cfg.Enabled {
		s.RemoveEventConfig(tenantID)
		return nil
	}
	return s.ScheduleAnnouncement(*cfg)
}

// RemoveEventConfig cancels the tenant's announcement registration. Reports
// whether one existed.
func (s *Scheduler) RemoveEventConfig(tenantID string) bool {
	key := domain.AnnounceKey(tenantID)
	ok := s.reg.remove(key)
	if ok {
		s.publish(eventbus.TypeJobRemoved, eventbus.JobEvent{Key: key, TenantID: tenantID})
		s.log.Debug("announcement removed", logx.String("job", key))
	}
	return ok
}
