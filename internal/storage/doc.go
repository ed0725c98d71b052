// Package storage persists reminders and announcement configs in SQLite.
//
// The database is the source of truth for scheduling: the scheduler holds
// only derived timer handles and re-reads rows here whenever freshness
// matters (announcement fires, upserts, restarts).
package storage
