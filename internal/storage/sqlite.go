package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lukadfagundes/bwaincell-sub001/internal/domain"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- Reminders ----

const reminderCols = `id, tenant_id, channel_id, user_id, message, cadence,
	hour, minute, day_of_week, day_of_month, month,
	next_trigger, claimed_at, created_at`

func scanReminder(row interface{ Scan(...any) error }) (domain.ReminderJob, error) {
	var (
		j         domain.ReminderJob
		cadence   string
		nextNS    sql.NullInt64
		claimedNS sql.NullInt64
		createdAt int64
	)
	err := row.Scan(
		&j.ID, &j.TenantID, &j.ChannelID, &j.UserID, &j.Message, &cadence,
		&j.Hour, &j.Minute, &j.DayOfWeek, &j.DayOfMonth, &j.Month,
		&nextNS, &claimedNS, &createdAt,
	)
	if err != nil {
		return domain.ReminderJob{}, err
	}
	j.Cadence = domain.Cadence(cadence)
	if nextNS.Valid {
		j.NextTrigger = time.Unix(nextNS.Int64, 0).UTC()
	}
	j.ClaimedAt = fromNullUnix(claimedNS)
	j.CreatedAt = time.Unix(createdAt, 0).UTC()
	return j, nil
}

func (s *sqliteStore) queryReminders(ctx context.Context, where string, args ...any) ([]domain.ReminderJob, error) {
	q := `SELECT ` + reminderCols + ` FROM reminders ` + where
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReminderJob
	for rows.Next() {
		j, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ActiveReminders returns every reminder eligible for scheduling: all
// recurring rows plus once rows no fire has claimed.
func (s *sqliteStore) ActiveReminders(ctx context.Context) ([]domain.ReminderJob, error) {
	return s.queryReminders(ctx, `WHERE cadence != 'once' OR claimed_at IS NULL ORDER BY created_at`)
}

// ClaimedReminders returns once rows a previous process claimed but never
// deleted, i.e. fires interrupted by a crash.
func (s *sqliteStore) ClaimedReminders(ctx context.Context) ([]domain.ReminderJob, error) {
	return s.queryReminders(ctx, `WHERE cadence = 'once' AND claimed_at IS NOT NULL ORDER BY created_at`)
}

func (s *sqliteStore) Reminder(ctx context.Context, id string) (*domain.ReminderJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reminderCols+` FROM reminders WHERE id = ?`, id)
	j, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *sqliteStore) ListReminders(ctx context.Context, tenantID string) ([]domain.ReminderJob, error) {
	return s.queryReminders(ctx, `WHERE tenant_id = ? ORDER BY created_at`, tenantID)
}

// CreateReminder validates and inserts the job, assigning an ID and CreatedAt
// when blank.
func (s *sqliteStore) CreateReminder(ctx context.Context, job *domain.ReminderJob) error {
	if job == nil {
		return errors.New("nil reminder")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if err := job.Validate(); err != nil {
		return err
	}

	var next sql.NullInt64
	if !job.NextTrigger.IsZero() {
		next = sql.NullInt64{Int64: job.NextTrigger.UTC().Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (
			id, tenant_id, channel_id, user_id, message, cadence,
			hour, minute, day_of_week, day_of_month, month,
			next_trigger, claimed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		job.ID, job.TenantID, job.ChannelID, job.UserID, job.Message, string(job.Cadence),
		job.Hour, job.Minute, job.DayOfWeek, job.DayOfMonth, job.Month,
		next, job.CreatedAt.UTC().Unix(),
	)
	return err
}

// ClaimReminder marks a once reminder as firing-in-progress. It reports false
// when the row is missing or another fire already holds the claim.
func (s *sqliteStore) ClaimReminder(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET claimed_at = ? WHERE id = ? AND claimed_at IS NULL`,
		time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *sqliteStore) DeleteReminder(ctx context.Context, id, tenantID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceRecurrence records a recurring fire. Best-effort bookkeeping: a row
// deleted mid-flight is not an error.
func (s *sqliteStore) AdvanceRecurrence(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET last_fired_at = ?, fire_count = fire_count + 1 WHERE id = ?`,
		time.Now().UTC().Unix(), id,
	)
	return err
}

// ---- Announcement configs ----

const announceCols = `tenant_id, channel_id, location, day, hour, minute,
	timezone, enabled, last_announced, updated_at`

func scanAnnouncement(row interface{ Scan(...any) error }) (domain.AnnouncementConfig, error) {
	var (
		c          domain.AnnouncementConfig
		enabledInt int
		lastNS     sql.NullInt64
		updatedAt  int64
	)
	err := row.Scan(
		&c.TenantID, &c.ChannelID, &c.Location, &c.Day, &c.Hour, &c.Minute,
		&c.Timezone, &enabledInt, &lastNS, &updatedAt,
	)
	if err != nil {
		return domain.AnnouncementConfig{}, err
	}
	c.Enabled = enabledInt != 0
	c.LastAnnounced = fromNullUnix(lastNS)
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return c, nil
}

func (s *sqliteStore) EnabledAnnouncementConfigs(ctx context.Context) ([]domain.AnnouncementConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+announceCols+` FROM announcement_configs WHERE enabled = 1 ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AnnouncementConfig
	for rows.Next() {
		c, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AnnouncementConfig(ctx context.Context, tenantID string) (*domain.AnnouncementConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+announceCols+` FROM announcement_configs WHERE tenant_id = ?`, tenantID)
	c, err := scanAnnouncement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertAnnouncementConfig inserts or replaces a tenant's config.
// LastAnnounced is preserved across upserts.
func (s *sqliteStore) UpsertAnnouncementConfig(ctx context.Context, cfg *domain.AnnouncementConfig) error {
	if cfg == nil {
		return errors.New("nil announcement config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	cfg.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcement_configs (
			tenant_id, channel_id, location, day, hour, minute,
			timezone, enabled, last_announced, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			location   = excluded.location,
			day        = excluded.day,
			hour       = excluded.hour,
			minute     = excluded.minute,
			timezone   = excluded.timezone,
			enabled    = excluded.enabled,
			updated_at = excluded.updated_at`,
		cfg.TenantID, cfg.ChannelID, cfg.Location, cfg.Day, cfg.Hour, cfg.Minute,
		cfg.Timezone, boolToInt(cfg.Enabled), now.Unix(),
	)
	return err
}

func (s *sqliteStore) SetAnnouncementEnabled(ctx context.Context, tenantID string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE announcement_configs SET enabled = ?, updated_at = ? WHERE tenant_id = ?`,
		boolToInt(enabled), time.Now().UTC().Unix(), tenantID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) DeleteAnnouncementConfig(ctx context.Context, tenantID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM announcement_configs WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) MarkAnnounced(ctx context.Context, tenantID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE announcement_configs SET last_announced = ? WHERE tenant_id = ?`,
		at.UTC().Unix(), tenantID,
	)
	return err
}

// ---- Helpers ----

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fromNullUnix(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}
