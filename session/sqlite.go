package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_records (
	session_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, name)
)`

// SQLite stores records as rows keyed by session id and name.
type SQLite struct {
	db        *sql.DB
	sessionID string
	now       func() time.Time
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path, sessionID string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingPath
	}
	if err := ValidateID(sessionID); err != nil {
		return nil, err
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrUnavailable, err)
	}
	// One writer at a time keeps snapshot writes for a name ordered.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", ErrUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrUnavailable, err)
	}
	return &SQLite{db: db, sessionID: sessionID, now: time.Now}, nil
}

// Type returns "sqlite".
func (s *SQLite) Type() string { return TypeSQLite }

// Get reads the record.
func (s *SQLite) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM session_records WHERE session_id = ? AND name = ?`,
		s.sessionID, name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, unavailable(TypeSQLite, "get", name, err)
	}
	return data, true, nil
}

// Set upserts the record.
func (s *SQLite) Set(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_records (session_id, name, data, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.sessionID, name, data, s.now().UnixMilli(),
	)
	if err != nil {
		return unavailable(TypeSQLite, "set", name, err)
	}
	return nil
}

// Remove deletes the record.
func (s *SQLite) Remove(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_records WHERE session_id = ? AND name = ?`,
		s.sessionID, name,
	)
	if err != nil {
		return unavailable(TypeSQLite, "remove", name, err)
	}
	return nil
}

// Close releases the SQLite connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
