// Package audit persists an append-only history of coordinated git
// operations to a local SQLite database, so a crashed or restarted kerneld
// process (or the desktop UI, or the TUI) can answer "what ran against this
// repo recently". Adapted from internal/memory/store.go's Store: same
// sql.Open-plus-migrate-on-NewStore shape, trimmed to the one table this
// kernel needs and switched from mattn/go-sqlite3 (cgo) to modernc.org/sqlite
// (pure Go), which is what this module's go.mod already carries.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed (or failed) coordinated operation.
type Record struct {
	ID          int64     `json:"id"`
	OperationID string    `json:"operationId"`
	RepoRoot    string    `json:"repoRoot"`
	Command     string    `json:"command"`
	Priority    string    `json:"priority"`
	Params      string    `json:"params,omitempty"`
	Error       string    `json:"error,omitempty"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Log is an append-only audit trail backed by SQLite.
type Log struct {
	db *sql.DB
}

// Open opens (creating if necessary) the audit database at dataDir/audit.db
// and runs its migration.
func Open(dataDir string) (*Log, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "audit.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	log := &Log{db: db}
	if err := log.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit database: %w", err)
	}
	return log, nil
}

func (l *Log) migrate() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation_id TEXT NOT NULL,
		repo_root TEXT NOT NULL,
		command TEXT NOT NULL,
		priority TEXT NOT NULL,
		params TEXT,
		error TEXT,
		enqueued_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(`CREATE INDEX IF NOT EXISTS idx_operations_repo ON operations(repo_root)`)
	return err
}

// Append records a completed operation. opErr, if non-nil, is stored as the
// record's Error string.
func (l *Log) Append(ctx context.Context, operationID, repoRoot, command, priority string, params json.RawMessage, opErr error, enqueuedAt, completedAt time.Time) error {
	errMsg := ""
	if opErr != nil {
		errMsg = opErr.Error()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO operations (operation_id, repo_root, command, priority, params, error, enqueued_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		operationID, repoRoot, command, priority, string(params), errMsg, enqueuedAt, completedAt)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Recent returns the most recent limit records for repoRoot, newest first.
func (l *Log) Recent(ctx context.Context, repoRoot string, limit int) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, operation_id, repo_root, command, priority, params, error, enqueued_at, completed_at
		 FROM operations WHERE repo_root = ? ORDER BY id DESC LIMIT ?`,
		repoRoot, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var params, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.OperationID, &r.RepoRoot, &r.Command, &r.Priority, &params, &errMsg, &r.EnqueuedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Params = params.String
		r.Error = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
