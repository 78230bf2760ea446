package diagram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultUserID keys the workspace row when no user is configured
const DefaultUserID = "local"

// SQLiteStore keeps one workspace document per user in a user_indicators table
type SQLiteStore struct {
	db     *sql.DB
	path   string
	userID string
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path, userID string) (*SQLiteStore, error) {
	if userID == "" {
		userID = DefaultUserID
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path, userID: userID}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// Name identifies the sink in logs
func (s *SQLiteStore) Name() string {
	return "sqlite:" + s.path
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_indicators (
		user_id TEXT PRIMARY KEY,
		indicator_data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts the workspace row of the configured user
func (s *SQLiteStore) Save(ctx context.Context, ws Workspace) error {
	data, err := encodeWorkspace(&ws)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_indicators (user_id, indicator_data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			indicator_data = excluded.indicator_data,
			updated_at = excluded.updated_at`,
		s.userID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert workspace: %w", err)
	}
	return nil
}

// Load reads the workspace row of the configured user
func (s *SQLiteStore) Load(ctx context.Context) (Workspace, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT indicator_data FROM user_indicators WHERE user_id = ?`, s.userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, fmt.Errorf("user %s: %w", s.userID, ErrNoWorkspace)
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("query workspace: %w", err)
	}
	ws, err := DecodeWorkspace([]byte(data))
	if err != nil {
		return Workspace{}, err
	}
	return *ws, nil
}
