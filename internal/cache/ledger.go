package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// LedgerFile is the ledger's file name inside the cache directory.
const LedgerFile = "ledger.db"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS entries (
	file        TEXT PRIMARY KEY,
	topic_id    TEXT NOT NULL,
	text_id     TEXT NOT NULL,
	size        INTEGER NOT NULL DEFAULT 0,
	puts        INTEGER NOT NULL DEFAULT 0,
	hits        INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	last_hit_at INTEGER
)`

// Ledger records cache activity in SQLite so entries can be listed with
// their usage. It is advisory: the files remain the source of truth.
type Ledger struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// LedgerStat is the recorded usage of one cache file.
type LedgerStat struct {
	TopicID string
	TextID  string
	Size    int64
	Puts    int64
	Hits    int64
	LastHit time.Time
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(ctx context.Context, path string) (*Ledger, error) {
	// #nosec G301 -- shared cache directory
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path, now: time.Now}
	if err := l.exec(ctx, ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return l, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RecordPut notes that file was (re)written for the key.
func (l *Ledger) RecordPut(ctx context.Context, file, topicID, textID string, size int64) error {
	now := l.now().UnixMilli()
	return l.exec(ctx, `
INSERT INTO entries (file, topic_id, text_id, size, puts, created_at, updated_at)
VALUES (?, ?, ?, ?, 1, ?, ?)
ON CONFLICT(file) DO UPDATE SET
	topic_id = excluded.topic_id,
	text_id = excluded.text_id,
	size = excluded.size,
	puts = entries.puts + 1,
	updated_at = excluded.updated_at`,
		file, topicID, textID, size, now, now)
}

// RecordHit notes a cache hit on file. Hits on files the ledger has never
// seen (written by an older version, or copied in) are ignored.
func (l *Ledger) RecordHit(ctx context.Context, file string) error {
	return l.exec(ctx,
		`UPDATE entries SET hits = hits + 1, last_hit_at = ? WHERE file = ?`,
		l.now().UnixMilli(), file)
}

// Forget drops the record for file.
func (l *Ledger) Forget(ctx context.Context, file string) error {
	return l.exec(ctx, `DELETE FROM entries WHERE file = ?`, file)
}

// Reset drops every record.
func (l *Ledger) Reset(ctx context.Context) error {
	return l.exec(ctx, `DELETE FROM entries`)
}

// Stats returns the recorded usage keyed by file name.
func (l *Ledger) Stats(ctx context.Context) (map[string]LedgerStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT file, topic_id, text_id, size, puts, hits, last_hit_at FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]LedgerStat)
	for rows.Next() {
		var (
			file    string
			st      LedgerStat
			lastHit sql.NullInt64
		)
		if err := rows.Scan(&file, &st.TopicID, &st.TextID, &st.Size, &st.Puts, &st.Hits, &lastHit); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		if lastHit.Valid {
			st.LastHit = time.UnixMilli(lastHit.Int64)
		}
		stats[file] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return stats, nil
}

func (l *Ledger) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := l.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}
