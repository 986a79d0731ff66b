package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"whatsapp-broadcast/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS send_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	ts           INTEGER NOT NULL,
	batch_id     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	group_label  TEXT NOT NULL,
	recipient    TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	message      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_send_log_batch ON send_log(batch_id, recipient, outcome);
CREATE INDEX IF NOT EXISTS idx_send_log_ts ON send_log(ts, outcome);
`

// SendLog implements ports.SendLog on a local SQLite file. The table is
// append-only: nothing in this type issues UPDATE or DELETE.
type SendLog struct {
	db *sql.DB
}

// New opens (creating if needed) the send log database at path.
func New(path string) (*SendLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SendLog{db: db}, nil
}

// Close closes the underlying database handle.
func (l *SendLog) Close() error {
	return l.db.Close()
}

// Append inserts one record. The row is durable when this returns.
func (l *SendLog) Append(ctx context.Context, rec domain.SendRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	const q = `
		INSERT INTO send_log (ts, batch_id, display_name, group_label, recipient, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, q,
		rec.Timestamp.Unix(), rec.BatchID, rec.DisplayName, rec.GroupLabel,
		rec.Recipient, string(rec.Outcome), rec.Message,
	)
	if err != nil {
		return fmt.Errorf("insert send record: %w", err)
	}
	return nil
}

// CountSentToday counts SENT rows stamped within the current local calendar day.
func (l *SendLog) CountSentToday(ctx context.Context) (int, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	const q = `SELECT COUNT(*) FROM send_log WHERE outcome = ? AND ts >= ? AND ts < ?`
	var n int
	if err := l.db.QueryRowContext(ctx, q, string(domain.OutcomeSent), start.Unix(), end.Unix()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sent today: %w", err)
	}
	return n, nil
}

// HasSentInBatch reports whether recipient already has a SENT row under batchID.
func (l *SendLog) HasSentInBatch(ctx context.Context, batchID, recipient string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM send_log WHERE batch_id = ? AND recipient = ? AND outcome = ?)`
	var exists bool
	if err := l.db.QueryRowContext(ctx, q, batchID, recipient, string(domain.OutcomeSent)).Scan(&exists); err != nil {
		return false, fmt.Errorf("query batch dedup: %w", err)
	}
	return exists, nil
}

// ListAll returns every record in append order.
func (l *SendLog) ListAll(ctx context.Context) ([]domain.SendRecord, error) {
	const q = `
		SELECT ts, batch_id, display_name, group_label, recipient, outcome, message
		FROM send_log
		ORDER BY id ASC
	`
	rows, err := l.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query send log: %w", err)
	}
	defer rows.Close()

	var recs []domain.SendRecord
	for rows.Next() {
		var rec domain.SendRecord
		var ts int64
		var outcome string
		if err := rows.Scan(&ts, &rec.BatchID, &rec.DisplayName, &rec.GroupLabel, &rec.Recipient, &outcome, &rec.Message); err != nil {
			return nil, fmt.Errorf("scan send record: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		rec.Outcome = domain.Outcome(outcome)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
