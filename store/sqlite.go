package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		payload TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_executions_agent ON executions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_executions_started ON executions(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, record *Record) error {
	var finished sql.NullInt64
	if !record.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: record.FinishedAt.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (id, agent_id, kind, status, started_at, finished_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   agent_id = excluded.agent_id,
		   kind = excluded.kind,
		   status = excluded.status,
		   started_at = excluded.started_at,
		   finished_at = excluded.finished_at,
		   payload = excluded.payload`,
		record.ID, record.AgentID, string(record.Kind), record.Status,
		record.StartedAt.UnixNano(), finished, string(record.Payload),
	)
	if err != nil {
		return fmt.Errorf("save execution %s: %w", record.ID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, kind, status, started_at, finished_at, payload
		 FROM executions WHERE id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	return record, nil
}

func (s *SQLite) List(ctx context.Context, filter Filter) ([]*Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, filter.AgentID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}

	query := `SELECT id, agent_id, kind, status, started_at, finished_at, payload FROM executions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list executions: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		record   Record
		kind     string
		started  int64
		finished sql.NullInt64
		payload  sql.NullString
	)
	if err := row.Scan(&record.ID, &record.AgentID, &kind, &record.Status, &started, &finished, &payload); err != nil {
		return nil, err
	}

	record.Kind = Kind(kind)
	record.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		record.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	if payload.Valid && payload.String != "" {
		record.Payload = []byte(payload.String)
	}
	return &record, nil
}
