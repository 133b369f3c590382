package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/eraquiz/internal/domain/model"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists sessions as JSON payload rows in SQLite.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database file at path and creates the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, sessionsSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Session, error) {
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("get session: %w", err)
	}
	return decode(payload)
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, sess model.Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	created := sess.CreatedAt.UTC().UnixMilli()
	updated := created
	if sess.CompletedAt != nil {
		updated = sess.CompletedAt.UTC().UnixMilli()
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, status, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		sess.ID, string(sess.Status), data, created, updated,
	)
	if err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
