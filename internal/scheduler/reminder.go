package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lukadfagundes/bwaincell-sub001/internal/domain"
	"github.com/lukadfagundes/bwaincell-sub001/internal/eventbus"
	"github.com/lukadfagundes/bwaincell-sub001/internal/storage"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// ScheduleReminder registers job, replacing any prior registration under its
// key. A once job whose trigger already elapsed is stale: it is logged,
// deleted from the store and never registered.
func (s *Scheduler) ScheduleReminder(job domain.ReminderJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if job.Cadence == domain.CadenceOnce {
		return s.scheduleOnce(job)
	}
	return s.scheduleRecurring(job)
}

func (s *Scheduler) scheduleOnce(job domain.ReminderJob) error {
	key := job.Key()
	delay := time.Until(job.NextTrigger)
	if delay <= 0 {
		s.log.Info("dropping stale reminder",
			logx.String("job", key),
			logx.Time("due", job.NextTrigger),
		)
		ctx, cancel := s.fireContext()
		defer cancel()
		if err := s.deps.Store.DeleteReminder(ctx, job.ID, job.TenantID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("stale reminder delete failed", logx.String("job", key), logx.Err(err))
		}
		s.reg.remove(key)
		s.publish(eventbus.TypeJobRemoved, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: "stale"})
		return nil
	}

	h := &timerHandle{}
	s.reg.register(key, h)
	h.arm(time.AfterFunc(delay, func() { s.fireOnce(job, h) }), job.NextTrigger)

	s.publish(eventbus.TypeJobRegistered, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: string(job.Cadence)})
	s.log.Debug("reminder armed",
		logx.String("job", key),
		logx.Duration("delay", delay.Round(time.Second)),
	)
	return nil
}

func (s *Scheduler) scheduleRecurring(job domain.ReminderJob) error {
	expr, err := job.CronExpr()
	if err != nil {
		return err
	}
	sched, err := s.parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse %q: %w", expr, err)
	}

	key := job.Key()
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	h := &entryHandle{engine: engine}
	s.reg.register(key, h)
	h.arm(engine.Schedule(sched, cron.FuncJob(func() { s.fireRecurring(job) })))

	s.publish(eventbus.TypeJobRegistered, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: string(job.Cadence)})
	s.log.Debug("reminder scheduled",
		logx.String("job", key),
		logx.String("cron", expr),
	)
	return nil
}

// fireOnce runs on the timer goroutine. Claim, send, delete, self-remove; the
// claim row is what makes a crash between steps recoverable.
func (s *Scheduler) fireOnce(job domain.ReminderJob, h *timerHandle) {
	if !s.beginFire() {
		return
	}
	defer s.fires.Done()
	defer s.recoverFire("reminder", job.Key())

	key := job.Key()
	ctx, cancel := s.fireContext()
	defer cancel()

	claimed, err := s.deps.Store.ClaimReminder(ctx, job.ID)
	if err != nil {
		s.log.Error("reminder claim failed", logx.String("job", key), logx.Err(err))
		s.reg.removeIf(key, h)
		s.record("reminder", key, err)
		s.publish(eventbus.TypeReminderFailed, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: err.Error()})
		return
	}
	if !claimed {
		// Row already deleted or claimed elsewhere.
		s.log.Info("reminder already handled", logx.String("job", key))
		s.reg.removeIf(key, h)
		return
	}

	sendErr := s.deps.Notify.Send(ctx, job.ChannelID, job.Message)
	if sendErr != nil {
		s.log.Error("reminder send failed", logx.String("job", key), logx.Err(sendErr))
	}
	// The occurrence is consumed either way; a once reminder never re-fires.
	if err := s.deps.Store.DeleteReminder(ctx, job.ID, job.TenantID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		// Claimed row survives; the next start re-sends and deletes it.
		s.log.Error("reminder delete failed", logx.String("job", key), logx.Err(err))
	}
	s.reg.removeIf(key, h)

	s.record("reminder", key, sendErr)
	if sendErr != nil {
		s.publish(eventbus.TypeReminderFailed, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: sendErr.Error()})
		return
	}
	s.publish(eventbus.TypeReminderFired, eventbus.JobEvent{Key: key, TenantID: job.TenantID})
	s.log.Info("reminder fired", logx.String("job", key))
}

// fireRecurring runs on the cron goroutine. A failed send keeps the
// registration; the next occurrence retries naturally.
func (s *Scheduler) fireRecurring(job domain.ReminderJob) {
	if !s.beginFire() {
		return
	}
	defer s.fires.Done()
	defer s.recoverFire("reminder", job.Key())

	key := job.Key()
	ctx, cancel := s.fireContext()
	defer cancel()

	if err := s.deps.Notify.Send(ctx, job.ChannelID, job.Message); err != nil {
		s.log.Error("reminder send failed", logx.String("job", key), logx.Err(err))
		s.record("reminder", key, err)
		s.publish(eventbus.TypeReminderFailed, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: err.Error()})
		return
	}
	if err := s.deps.Store.AdvanceRecurrence(ctx, job.ID); err != nil {
		// Bookkeeping only; the fire already went out.
		s.log.Warn("recurrence bookkeeping failed", logx.String("job", key), logx.Err(err))
	}

	s.record("reminder", key, nil)
	s.publish(eventbus.TypeReminderFired, eventbus.JobEvent{Key: key, TenantID: job.TenantID})
	s.log.Info("reminder fired", logx.String("job", key))
}

// recoverClaimed re-sends once reminders a previous process claimed but never
// deleted. Delivery is at-least-once: the claim proves the prior process got
// as far as the fire, not that the send completed.
func (s *Scheduler) recoverClaimed(ctx context.Context) {
	jobs, err := s.deps.Store.ClaimedReminders(ctx)
	if err != nil {
		s.log.Warn("claimed reminder scan failed", logx.Err(err))
		return
	}
	for _, job := range jobs {
		key := job.Key()
		s.log.Info("recovering claimed reminder",
			logx.String("job", key),
			logx.Time("claimed_at", derefTime(job.ClaimedAt)),
		)

		sendErr := s.deps.Notify.Send(ctx, job.ChannelID, job.Message)
		if sendErr != nil {
			s.log.Error("recovery send failed", logx.String("job", key), logx.Err(sendErr))
		}
		if err := s.deps.Store.DeleteReminder(ctx, job.ID, job.TenantID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("recovery delete failed", logx.String("job", key), logx.Err(err))
		}

		s.record("recovery", key, sendErr)
		if sendErr != nil {
			s.publish(eventbus.TypeReminderFailed, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: sendErr.Error()})
			continue
		}
		s.publish(eventbus.TypeReminderFired, eventbus.JobEvent{Key: key, TenantID: job.TenantID, Detail: "recovered"})
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// AddReminder re-fetches id from the store and registers it. A missing row
// removes any live registration instead, so callers can invoke it after any
// write without caring which way the row went.
func (s *Scheduler) AddReminder(ctx context.Context, id string) error {
	job, err := s.deps.Store.Reminder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		s.RemoveReminder(id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reminder %s: %w", id, err)
	}
	return s.ScheduleReminder(*job)
}

// RemoveReminder cancels id's registration. Reports whether one existed.
func (s *Scheduler) RemoveReminder(id string) bool {
	key := domain.ReminderKey(id)
	ok := s.reg.remove(key)
	if ok {
		s.publish(eventbus.TypeJobRemoved, eventbus.JobEvent{Key: key})
		s.log.Debug("reminder removed", logx.String("job", key))
	}
	return ok
}
