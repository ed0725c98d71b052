package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lukadfagundes/bwaincell-sub001/internal/domain"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// ErrNotFound is returned when a reminder or announcement config does not
// exist. Match with errors.Is.
var ErrNotFound = errors.New("not found")

// Config configures storage.
//
// Driver values:
//   - "sqlite" (default): SQLite database file, pure-Go driver
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means 5s
}

// Store is the persistence API for reminders and announcement configs.
// The scheduler consumes a narrow subset of it; the command layer uses the
// rest.
type Store interface {
	ActiveReminders(ctx context.Context) ([]domain.ReminderJob, error)
	ClaimedReminders(ctx context.Context) ([]domain.ReminderJob, error)
	Reminder(ctx context.Context, id string) (*domain.ReminderJob, error)
	ListReminders(ctx context.Context, tenantID string) ([]domain.ReminderJob, error)
	CreateReminder(ctx context.Context, job *domain.ReminderJob) error
	ClaimReminder(ctx context.Context, id string) (bool, error)
	DeleteReminder(ctx context.Context, id, tenantID string) error
	AdvanceRecurrence(ctx context.Context, id string) error

	EnabledAnnouncementConfigs(ctx context.Context) ([]domain.AnnouncementConfig, error)
	AnnouncementConfig(ctx context.Context, tenantID string) (*domain.AnnouncementConfig, error)
	UpsertAnnouncementConfig(ctx context.Context, cfg *domain.AnnouncementConfig) error
	SetAnnouncementEnabled(ctx context.Context, tenantID string, enabled bool) error
	DeleteAnnouncementConfig(ctx context.Context, tenantID string) error
	MarkAnnounced(ctx context.Context, tenantID string, at time.Time) error

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
