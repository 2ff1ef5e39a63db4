package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
)

// AuditStore persists audit entries in SQLite. It implements audit.Sink.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens the database described by cfg and creates the audit
// table when missing.
func NewAuditStore(cfg Config) (*AuditStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	s := &AuditStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenAuditStore opens the audit database at path with default settings.
func OpenAuditStore(path string) (*AuditStore, error) {
	return NewAuditStore(DefaultConfig(path))
}

func (s *AuditStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			phase TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_run_id ON audit_entries(run_id);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Write persists one entry.
func (s *AuditStore) Write(ctx context.Context, e audit.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO audit_entries (id, run_id, stage, phase, iteration, timestamp, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.Stage, e.Phase, e.Iteration, e.Timestamp.UnixNano(), data,
	)
	return err
}

// List returns the most recent entries, newest first, optionally for one run.
// A limit of 0 or less returns every entry.
func (s *AuditStore) List(ctx context.Context, runID string, limit int) ([]audit.Entry, error) {
	query := `SELECT data FROM audit_entries`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []audit.Entry
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e audit.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the given age and returns how many were removed.
func (s *AuditStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

var _ audit.Sink = (*AuditStore)(nil)
